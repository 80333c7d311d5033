// Copyright 2024-2026 Rapyuta Robotics

package bridge

import "sync"

// ServiceDetail describes one discovered service's type.
type ServiceDetail struct {
	// Type is the full type name, "package/name".
	Type    string
	Package string
	Name    string
}

// topicBridge is one live topic bridge entry. The direction is implied by
// the registry map holding it. At most one entry exists per topic per
// direction.
type topicBridge struct {
	ros1Type string
	ros2Type string
	handle   Handle
}

// registry is the single shared-state container: the latest discovery
// snapshots from both sides plus all live bridge entries, guarded by one
// mutex. Pollers take the lock briefly to publish a fresh snapshot and
// again for the duration of a reconciliation pass.
type registry struct {
	mu sync.Mutex

	// Latest per-side snapshots, replaced wholesale each poll.
	ros1Publishers  map[string]string
	ros1Subscribers map[string]string
	ros2Publishers  map[string]string
	ros2Subscribers map[string]string
	ros1Services    map[string]ServiceDetail
	ros2Services    map[string]ServiceDetail

	// Live bridges, keyed by topic or service name.
	bridges1to2        map[string]*topicBridge
	bridges2to1        map[string]*topicBridge
	serviceBridges1to2 map[string]Handle
	serviceBridges2to1 map[string]Handle

	// Services already warned about for lacking a conversion factory,
	// keyed by "<domain>:<name>". Grows for the life of the process.
	warnedServices map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		ros1Publishers:     make(map[string]string),
		ros1Subscribers:    make(map[string]string),
		ros2Publishers:     make(map[string]string),
		ros2Subscribers:    make(map[string]string),
		ros1Services:       make(map[string]ServiceDetail),
		ros2Services:       make(map[string]ServiceDetail),
		bridges1to2:        make(map[string]*topicBridge),
		bridges2to1:        make(map[string]*topicBridge),
		serviceBridges1to2: make(map[string]Handle),
		serviceBridges2to1: make(map[string]Handle),
		warnedServices:     make(map[string]struct{}),
	}
}

func (r *registry) setROS1Topics(publishers, subscribers map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ros1Publishers = publishers
	r.ros1Subscribers = subscribers
}

func (r *registry) setROS1Services(services map[string]ServiceDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ros1Services = services
}

func (r *registry) setROS2Topics(publishers, subscribers map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ros2Publishers = publishers
	r.ros2Subscribers = subscribers
}

func (r *registry) setROS2Services(services map[string]ServiceDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ros2Services = services
}

// topicBridgeNames snapshots the names of live topic bridges in both
// directions, so the ROS 2 poller can net the bridge's own endpoints out
// of discovery counts without holding the lock across the whole poll.
func (r *registry) topicBridgeNames() (bridged1to2, bridged2to1 map[string]struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bridged1to2 = make(map[string]struct{}, len(r.bridges1to2))
	for name := range r.bridges1to2 {
		bridged1to2[name] = struct{}{}
	}
	bridged2to1 = make(map[string]struct{}, len(r.bridges2to1))
	for name := range r.bridges2to1 {
		bridged2to1[name] = struct{}{}
	}
	return bridged1to2, bridged2to1
}
