// Copyright 2024-2026 Rapyuta Robotics

package bridge

import "errors"

// ErrNoConversion is returned by Factory implementations when no type
// conversion is registered for the requested pair. The reconciler treats it
// as an expected condition and points the operator at --print-pairs.
var ErrNoConversion = errors.New("no conversion registered for the requested type pair")

// Handle is an opaque live forwarding construct owned by the registry.
// Close must be idempotent; the registry is the only holder of a Handle
// and releases it exactly when the entry is replaced or pruned.
type Handle interface {
	Close() error
}

// ServiceFactory constructs service bridges for one (domain, package, name)
// service type.
type ServiceFactory interface {
	// ServiceBridge1to2 exposes a ROS 2 service backed by ROS 1 clients.
	ServiceBridge1to2(name string) (Handle, error)
	// ServiceBridge2to1 exposes a ROS 1 service backed by ROS 2 clients.
	ServiceBridge2to1(name string) (Handle, error)
}

// Factory constructs forwarding bridges from resolved type pairs. All
// calls are synchronous and are made while the registry lock is held, so
// implementations must be bounded; a slow factory stalls reconciliation
// for both sides.
type Factory interface {
	// CreateBridge1to2 builds a topic bridge forwarding ROS 1 messages
	// of ros1Type to ROS 2 as ros2Type.
	CreateBridge1to2(ros1Type, topic string, ros1QueueDepth int, ros2Type string, ros2QueueDepth int) (Handle, error)
	// CreateBridge2to1 is the mirror direction.
	CreateBridge2to1(ros2Type, topic string, ros2QueueDepth int, ros1Type string, ros1QueueDepth int) (Handle, error)

	// ServiceFactory resolves a service conversion by the originating
	// domain ("ros1" or "ros2") and the service type's package and
	// short name. The boolean is false when no conversion is known.
	ServiceFactory(domain, pkg, name string) (ServiceFactory, bool)

	// Mapping1to2 returns the statically mapped ROS 2 type for a ROS 1
	// message type, for bridge-all topics with no live subscriber.
	Mapping1to2(ros1Type string) (string, bool)
	// Mapping2to1 is the mirror lookup.
	Mapping2to1(ros2Type string) (string, bool)
}
