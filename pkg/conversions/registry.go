// Copyright 2024-2026 Rapyuta Robotics

// Package conversions holds the registry of known ROS 1 <=> ROS 2 type
// conversions. Conversion packages register their message pairs and
// service factories from init functions, mirroring how the generated C++
// factories are resolved at link time; the dynamic bridge only ever looks
// conversions up. With no conversion packages linked in, every lookup
// misses and --print-pairs prints an empty listing.
package conversions

import (
	"fmt"
	"sync"

	"github.com/rapyuta-robotics/ros1-bridge/pkg/bridge"
)

// MessagePair names one bridgeable message type pairing.
type MessagePair struct {
	ROS1Type string
	ROS2Type string
}

// ServicePair names one bridgeable service type.
type ServicePair struct {
	// Domain is the side the service type belongs to, "ros1" or "ros2".
	Domain  string
	Package string
	Name    string
}

// TopicBridgeBuilder constructs forwarding bridges for one message pair.
type TopicBridgeBuilder interface {
	Bridge1to2(topic string, ros1QueueDepth, ros2QueueDepth int) (bridge.Handle, error)
	Bridge2to1(topic string, ros2QueueDepth, ros1QueueDepth int) (bridge.Handle, error)
}

// Registry implements bridge.Factory over registered conversions.
type Registry struct {
	mu               sync.RWMutex
	pairs            []MessagePair
	topicBuilders    map[MessagePair]TopicBridgeBuilder
	servicePairs     []ServicePair
	serviceFactories map[ServicePair]bridge.ServiceFactory
}

var _ bridge.Factory = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		topicBuilders:    make(map[MessagePair]TopicBridgeBuilder),
		serviceFactories: make(map[ServicePair]bridge.ServiceFactory),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry that conversion packages
// register into.
func Default() *Registry {
	return defaultRegistry
}

// RegisterMessagePair registers a conversion in the default registry.
// Intended for init functions of conversion packages.
func RegisterMessagePair(pair MessagePair, builder TopicBridgeBuilder) {
	defaultRegistry.RegisterMessagePair(pair, builder)
}

// RegisterServiceFactory registers a service conversion in the default
// registry. Intended for init functions of conversion packages.
func RegisterServiceFactory(pair ServicePair, factory bridge.ServiceFactory) {
	defaultRegistry.RegisterServiceFactory(pair, factory)
}

// RegisterMessagePair adds a message conversion. Registering the same pair
// twice panics: it means two conversion packages claim the same types.
func (r *Registry) RegisterMessagePair(pair MessagePair, builder TopicBridgeBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.topicBuilders[pair]; dup {
		panic(fmt.Sprintf("conversions: message pair %s <=> %s registered twice", pair.ROS1Type, pair.ROS2Type))
	}
	r.topicBuilders[pair] = builder
	r.pairs = append(r.pairs, pair)
}

// RegisterServiceFactory adds a service conversion. Duplicate registration
// panics.
func (r *Registry) RegisterServiceFactory(pair ServicePair, factory bridge.ServiceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.serviceFactories[pair]; dup {
		panic(fmt.Sprintf("conversions: service %s/%s/%s registered twice", pair.Domain, pair.Package, pair.Name))
	}
	r.serviceFactories[pair] = factory
	r.servicePairs = append(r.servicePairs, pair)
}

// CreateBridge1to2 implements bridge.Factory.
func (r *Registry) CreateBridge1to2(ros1Type, topic string, ros1QueueDepth int, ros2Type string, ros2QueueDepth int) (bridge.Handle, error) {
	r.mu.RLock()
	builder, ok := r.topicBuilders[MessagePair{ROS1Type: ros1Type, ROS2Type: ros2Type}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (ROS 1) <=> %q (ROS 2)", bridge.ErrNoConversion, ros1Type, ros2Type)
	}
	return builder.Bridge1to2(topic, ros1QueueDepth, ros2QueueDepth)
}

// CreateBridge2to1 implements bridge.Factory.
func (r *Registry) CreateBridge2to1(ros2Type, topic string, ros2QueueDepth int, ros1Type string, ros1QueueDepth int) (bridge.Handle, error) {
	r.mu.RLock()
	builder, ok := r.topicBuilders[MessagePair{ROS1Type: ros1Type, ROS2Type: ros2Type}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (ROS 1) <=> %q (ROS 2)", bridge.ErrNoConversion, ros1Type, ros2Type)
	}
	return builder.Bridge2to1(topic, ros2QueueDepth, ros1QueueDepth)
}

// ServiceFactory implements bridge.Factory.
func (r *Registry) ServiceFactory(domain, pkg, name string) (bridge.ServiceFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.serviceFactories[ServicePair{Domain: domain, Package: pkg, Name: name}]
	return factory, ok
}

// Mapping1to2 implements bridge.Factory: the first registered pair for the
// ROS 1 type wins.
func (r *Registry) Mapping1to2(ros1Type string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pair := range r.pairs {
		if pair.ROS1Type == ros1Type {
			return pair.ROS2Type, true
		}
	}
	return "", false
}

// Mapping2to1 implements bridge.Factory.
func (r *Registry) Mapping2to1(ros2Type string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pair := range r.pairs {
		if pair.ROS2Type == ros2Type {
			return pair.ROS1Type, true
		}
	}
	return "", false
}

// MessagePairs lists registered message conversions in registration order.
func (r *Registry) MessagePairs() []MessagePair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MessagePair, len(r.pairs))
	copy(out, r.pairs)
	return out
}

// ServicePairs lists registered service conversions in registration order.
func (r *Registry) ServicePairs() []ServicePair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServicePair, len(r.servicePairs))
	copy(out, r.servicePairs)
	return out
}
