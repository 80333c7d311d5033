// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"errors"
	"testing"
)

func TestPollROS2SkipsBuiltinTopics(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	ros2 := &fakeROS2{
		topics: map[string][]string{
			"parameter_events": {"rcl_interfaces/msg/ParameterEvent"},
			"/chatter":         {"std_msgs/msg/String"},
		},
		publishers: map[string]int{"parameter_events": 1, "/chatter": 1},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})

	s.pollROS2Once(context.Background())

	if _, ok := s.reg.ros2Publishers["parameter_events"]; ok {
		t.Error("builtin topic appeared in snapshot")
	}
	if _, ok := s.reg.ros2Publishers["/chatter"]; !ok {
		t.Error("regular topic missing from snapshot")
	}
}

func TestPollROS2MultiTypeTopicIgnored(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	ros2 := &fakeROS2{
		topics: map[string][]string{
			"/ambiguous": {"std_msgs/msg/String", "std_msgs/msg/Int32"},
		},
		publishers: map[string]int{"/ambiguous": 1},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})

	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Publishers["/ambiguous"]; ok {
		t.Error("multi-type topic appeared in snapshot")
	}
	if _, ignored := s.ignoredROS2Topics["/ambiguous"]; !ignored {
		t.Error("multi-type topic not added to ignored set")
	}

	// Even after the topic settles on a single type, it stays ignored.
	ros2.topics["/ambiguous"] = []string{"std_msgs/msg/String"}
	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Publishers["/ambiguous"]; ok {
		t.Error("ignored topic was re-evaluated")
	}
}

func TestPollROS2FilterRejectionIsSticky(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	cfg := DefaultConfig()
	params := &fakeParams{lists: map[string][]string{
		cfg.TopicRegexParam:   {"/allowed/.*"},
		cfg.ServiceRegexParam: {".*"},
	}}
	ros2 := &fakeROS2{
		topics: map[string][]string{
			"/allowed/one": {"std_msgs/msg/String"},
			"/denied":      {"std_msgs/msg/String"},
		},
		publishers: map[string]int{"/allowed/one": 1, "/denied": 1},
	}
	s := newTestService(t, factory, testServiceOptions{cfg: &cfg, ros2: ros2, params: params})

	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Publishers["/denied"]; ok {
		t.Error("filtered topic appeared in snapshot")
	}
	if _, ignored := s.ignoredROS2Topics["/denied"]; !ignored {
		t.Error("rejected topic not added to ignored set")
	}

	allowAll, err := CompilePatterns([]string{".*"})
	if err != nil {
		t.Fatalf("CompilePatterns: %v", err)
	}
	s.ros2TopicFilter = NewAllowList(allowAll)
	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Publishers["/denied"]; ok {
		t.Error("ignored topic was re-evaluated")
	}
}

func TestPollROS2NetsOutOwnEndpoints(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	ros2 := &fakeROS2{
		topics: map[string][]string{
			"/chatter": {"std_msgs/msg/String"},
			"/cmds":    {"std_msgs/msg/String"},
		},
		// On /chatter the only publisher is the bridge's own 1to2
		// endpoint. On /cmds the only subscriber is the bridge's own
		// 2to1 endpoint.
		publishers:  map[string]int{"/chatter": 1, "/cmds": 0},
		subscribers: map[string]int{"/chatter": 0, "/cmds": 1},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})
	s.reg.bridges1to2["/chatter"] = &topicBridge{handle: &fakeHandle{}}
	s.reg.bridges2to1["/cmds"] = &topicBridge{handle: &fakeHandle{}}

	s.pollROS2Once(context.Background())

	if _, ok := s.reg.ros2Publishers["/chatter"]; ok {
		t.Error("bridge's own publisher counted as active")
	}
	if _, ok := s.reg.ros2Subscribers["/cmds"]; ok {
		t.Error("bridge's own subscriber counted as active")
	}

	// A second real participant must survive the netting.
	ros2.publishers["/chatter"] = 2
	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Publishers["/chatter"]; !ok {
		t.Error("foreign publisher netted out along with the bridge's own")
	}
}

func TestPollROS2InvalidServiceTypeSkipped(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	ros2 := &fakeROS2{
		services: map[string][]string{
			"/good": {"std_srvs/srv/Empty"},
			"/bad":  {"noslash"},
		},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})

	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Services["/good"]; !ok {
		t.Error("valid service missing from active set")
	}
	if _, ok := s.reg.ros2Services["/bad"]; ok {
		t.Error("service with malformed type appeared in active set")
	}
	detail := s.reg.ros2Services["/good"]
	if detail.Package != "std_srvs" || detail.Name != "srv/Empty" {
		t.Errorf("detail split on first slash: got %+v", detail)
	}
}

func TestPollROS2ServiceErrorKeepsPreviousServices(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	ros2 := &fakeROS2{
		topics:   map[string][]string{},
		services: map[string][]string{"/srv": {"std_srvs/srv/Empty"}},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})

	s.pollROS2Once(context.Background())
	if _, ok := s.reg.ros2Services["/srv"]; !ok {
		t.Fatal("initial service snapshot missing")
	}

	ros2.servicesErr = errors.New("daemon unreachable")
	ros2.topics = map[string][]string{"/chatter": {"std_msgs/msg/String"}}
	ros2.publishers = map[string]int{"/chatter": 1}
	s.pollROS2Once(context.Background())

	if _, ok := s.reg.ros2Services["/srv"]; !ok {
		t.Error("previous service snapshot discarded on discovery error")
	}
	// The topic snapshot still goes through.
	if _, ok := s.reg.ros2Publishers["/chatter"]; !ok {
		t.Error("topic snapshot not published despite service error")
	}
}

func TestPollROS2TriggersReconcile(t *testing.T) {
	t.Parallel()
	factory := newFakeFactory()
	factory.allowPair("std_msgs/String", "std_msgs/msg/String")
	ros2 := &fakeROS2{
		topics:     map[string][]string{"/chatter": {"std_msgs/msg/String"}},
		publishers: map[string]int{"/chatter": 1},
	}
	s := newTestService(t, factory, testServiceOptions{ros2: ros2})
	s.reg.setROS1Topics(nil, map[string]string{"/chatter": "std_msgs/String"})

	s.pollROS2Once(context.Background())
	if len(factory.callsFor("/chatter")) != 1 {
		t.Errorf("reconcile calls: got %d, want 1", len(factory.callsFor("/chatter")))
	}
}
