// Copyright 2024-2026 Rapyuta Robotics

package bridge

import "context"

// SystemState is the ROS 1 master's view of graph participants: for every
// topic, the node names publishing and subscribing to it, plus the names of
// advertised services. Type information is not part of the system state and
// is fetched separately via TopicTypes and the service type probe.
type SystemState struct {
	Publishers  map[string][]string
	Subscribers map[string][]string
	Services    []string
}

// ROS1Discovery exposes the ROS 1 master's discovery and lookup API.
type ROS1Discovery interface {
	// SystemState returns the current publishers, subscribers and
	// services known to the master.
	SystemState(ctx context.Context) (*SystemState, error)
	// TopicTypes maps topic names to their message type names. Topics
	// with only subscribers may be absent: ROS 1 subscribers do not
	// report their type to the master.
	TopicTypes(ctx context.Context) (map[string]string, error)
	// LookupService resolves a service name to the host and port of its
	// TCPROS listener.
	LookupService(ctx context.Context, name string) (host string, port int, err error)
}

// ROS2Discovery exposes the ROS 2 graph discovery API. Unlike ROS 1, both
// topic and service discovery report type names, and a name may carry more
// than one concurrent type.
type ROS2Discovery interface {
	TopicNamesAndTypes(ctx context.Context) (map[string][]string, error)
	ServiceNamesAndTypes(ctx context.Context) (map[string][]string, error)
	CountPublishers(ctx context.Context, topic string) (int, error)
	CountSubscribers(ctx context.Context, topic string) (int, error)
}

// ParamSource reads named configuration parameters. The allow-list
// patterns are fetched through this exactly once at startup.
type ParamSource interface {
	// StringListParam returns the parameter's value as a list of
	// strings, or an error if the parameter is missing or has a
	// different shape.
	StringListParam(ctx context.Context, name string) ([]string, error)
}

// ServiceTypeProber recovers a ROS 1 service's type, which the master's
// discovery does not report. The production implementation dials the
// service's TCPROS listener; see TCPProber.
type ServiceTypeProber interface {
	ProbeServiceType(ctx context.Context, service string) (ServiceDetail, error)
}
