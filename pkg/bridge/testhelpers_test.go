// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// fakeROS1 is a canned ROS1Discovery.
type fakeROS1 struct {
	state      *SystemState
	stateErr   error
	topicTypes map[string]string
	typesErr   error

	lookupHost string
	lookupPort int
	lookupErr  error
}

func (f *fakeROS1) SystemState(context.Context) (*SystemState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeROS1) TopicTypes(context.Context) (map[string]string, error) {
	if f.typesErr != nil {
		return nil, f.typesErr
	}
	return f.topicTypes, nil
}

func (f *fakeROS1) LookupService(_ context.Context, name string) (string, int, error) {
	if f.lookupErr != nil {
		return "", 0, f.lookupErr
	}
	return f.lookupHost, f.lookupPort, nil
}

// fakeROS2 is a canned ROS2Discovery.
type fakeROS2 struct {
	topics      map[string][]string
	topicsErr   error
	services    map[string][]string
	servicesErr error
	publishers  map[string]int
	subscribers map[string]int
}

func (f *fakeROS2) TopicNamesAndTypes(context.Context) (map[string][]string, error) {
	if f.topicsErr != nil {
		return nil, f.topicsErr
	}
	return f.topics, nil
}

func (f *fakeROS2) ServiceNamesAndTypes(context.Context) (map[string][]string, error) {
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return f.services, nil
}

func (f *fakeROS2) CountPublishers(_ context.Context, topic string) (int, error) {
	return f.publishers[topic], nil
}

func (f *fakeROS2) CountSubscribers(_ context.Context, topic string) (int, error) {
	return f.subscribers[topic], nil
}

// fakeParams serves allow-list parameters.
type fakeParams struct {
	lists map[string][]string
	calls int
}

func (f *fakeParams) StringListParam(_ context.Context, name string) ([]string, error) {
	f.calls++
	values, ok := f.lists[name]
	if !ok {
		return nil, fmt.Errorf("param %q not set", name)
	}
	return values, nil
}

// fakeHandle counts Close calls.
type fakeHandle struct {
	mu       sync.Mutex
	closed   int
	closeErr error
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return h.closeErr
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// topicCall records one topic bridge construction.
type topicCall struct {
	direction string
	topic     string
	ros1Type  string
	ros2Type  string
	handle    *fakeHandle
}

// serviceCall records one service bridge construction.
type serviceCall struct {
	direction string
	name      string
	handle    *fakeHandle
}

// fakeFactory is a recording Factory. Pairs present in known are
// constructible; everything else fails with ErrNoConversion.
type fakeFactory struct {
	known            map[[2]string]struct{} // {ros1Type, ros2Type}
	mappings1to2     map[string]string
	mappings2to1     map[string]string
	serviceFactories map[[3]string]*fakeServiceFactory // {domain, pkg, name}

	topicCalls     []topicCall
	serviceCalls   []serviceCall
	createAttempts int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		known:            make(map[[2]string]struct{}),
		mappings1to2:     make(map[string]string),
		mappings2to1:     make(map[string]string),
		serviceFactories: make(map[[3]string]*fakeServiceFactory),
	}
}

func (f *fakeFactory) allowPair(ros1Type, ros2Type string) {
	f.known[[2]string{ros1Type, ros2Type}] = struct{}{}
}

func (f *fakeFactory) create(direction, typeA, topic, typeB string) (Handle, error) {
	f.createAttempts++
	var ros1Type, ros2Type string
	if direction == "1to2" {
		ros1Type, ros2Type = typeA, typeB
	} else {
		ros2Type, ros1Type = typeA, typeB
	}
	if _, ok := f.known[[2]string{ros1Type, ros2Type}]; !ok {
		return nil, fmt.Errorf("%w: %q <=> %q", ErrNoConversion, ros1Type, ros2Type)
	}
	handle := &fakeHandle{}
	f.topicCalls = append(f.topicCalls, topicCall{
		direction: direction,
		topic:     topic,
		ros1Type:  ros1Type,
		ros2Type:  ros2Type,
		handle:    handle,
	})
	return handle, nil
}

func (f *fakeFactory) CreateBridge1to2(ros1Type, topic string, _ int, ros2Type string, _ int) (Handle, error) {
	return f.create("1to2", ros1Type, topic, ros2Type)
}

func (f *fakeFactory) CreateBridge2to1(ros2Type, topic string, _ int, ros1Type string, _ int) (Handle, error) {
	return f.create("2to1", ros2Type, topic, ros1Type)
}

func (f *fakeFactory) ServiceFactory(domain, pkg, name string) (ServiceFactory, bool) {
	sf, ok := f.serviceFactories[[3]string{domain, pkg, name}]
	if !ok {
		return nil, false
	}
	return sf, true
}

func (f *fakeFactory) Mapping1to2(ros1Type string) (string, bool) {
	ros2Type, ok := f.mappings1to2[ros1Type]
	return ros2Type, ok
}

func (f *fakeFactory) Mapping2to1(ros2Type string) (string, bool) {
	ros1Type, ok := f.mappings2to1[ros2Type]
	return ros1Type, ok
}

// callsFor filters recorded topic constructions by topic name.
func (f *fakeFactory) callsFor(topic string) []topicCall {
	var out []topicCall
	for _, call := range f.topicCalls {
		if call.topic == topic {
			out = append(out, call)
		}
	}
	return out
}

// fakeServiceFactory records service bridge constructions on behalf of
// its owning fakeFactory.
type fakeServiceFactory struct {
	owner *fakeFactory
}

func (sf *fakeServiceFactory) bridge(direction, name string) (Handle, error) {
	handle := &fakeHandle{}
	sf.owner.serviceCalls = append(sf.owner.serviceCalls, serviceCall{
		direction: direction,
		name:      name,
		handle:    handle,
	})
	return handle, nil
}

func (sf *fakeServiceFactory) ServiceBridge1to2(name string) (Handle, error) {
	return sf.bridge("1to2", name)
}

func (sf *fakeServiceFactory) ServiceBridge2to1(name string) (Handle, error) {
	return sf.bridge("2to1", name)
}

// fakeProber serves canned probe results.
type fakeProber struct {
	details map[string]ServiceDetail
	errs    map[string]error
	probes  []string
}

func (p *fakeProber) ProbeServiceType(_ context.Context, service string) (ServiceDetail, error) {
	p.probes = append(p.probes, service)
	if err, ok := p.errs[service]; ok {
		return ServiceDetail{}, err
	}
	detail, ok := p.details[service]
	if !ok {
		return ServiceDetail{}, fmt.Errorf("no canned detail for %q", service)
	}
	return detail, nil
}

// testServiceOptions configures newTestService.
type testServiceOptions struct {
	cfg    *Config
	ros1   *fakeROS1
	ros2   *fakeROS2
	params *fakeParams
	prober *fakeProber
}

// newTestService builds a started Service over fakes. Defaults: allow-all
// filters for topics and services, poll config from the embedded example.
func newTestService(t *testing.T, factory *fakeFactory, opts testServiceOptions) *Service {
	t.Helper()

	cfg := DefaultConfig()
	if opts.cfg != nil {
		cfg = *opts.cfg
	}
	if err := cfg.PostProcess(); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}

	ros1 := opts.ros1
	if ros1 == nil {
		ros1 = &fakeROS1{state: &SystemState{}}
	}
	ros2 := opts.ros2
	if ros2 == nil {
		ros2 = &fakeROS2{}
	}
	params := opts.params
	if params == nil {
		params = &fakeParams{lists: map[string][]string{
			cfg.TopicRegexParam:   {".*"},
			cfg.ServiceRegexParam: {".*"},
		}}
	}
	var prober ServiceTypeProber
	if opts.prober != nil {
		prober = opts.prober
	}

	s := New(cfg, zerolog.New(io.Discard), Collaborators{
		ROS1:    ros1,
		ROS2:    ros2,
		Params:  params,
		Factory: factory,
		Prober:  prober,
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}
