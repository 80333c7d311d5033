// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"strings"
	"time"
)

// builtinROS2Topics are ROS 2 infrastructure topics that must never be
// bridged.
var builtinROS2Topics = map[string]struct{}{
	"parameter_events": {},
}

// runROS2Poller polls the ROS 2 graph on the configured interval until
// ctx is cancelled.
func (s *Service) runROS2Poller(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollROS2Once(ctx)
		}
	}
}

// pollROS2Once assembles one ROS 2 discovery snapshot, publishes it and
// runs a reconciliation pass.
func (s *Service) pollROS2Once(ctx context.Context) {
	topics, err := s.ros2.TopicNamesAndTypes(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to poll ROS 2 graph for topics")
		return
	}

	// The bridge's own forwarding endpoints show up in the ROS 2 counts;
	// net them out so a topic whose only participant is the bridge is
	// not considered active.
	bridged1to2, bridged2to1 := s.reg.topicBridgeNames()

	currentPublishers := make(map[string]string)
	currentSubscribers := make(map[string]string)
	for topic, types := range topics {
		if _, builtin := builtinROS2Topics[topic]; builtin {
			continue
		}
		if len(types) == 0 {
			continue
		}
		if len(types) > 1 {
			if _, ignored := s.ignoredROS2Topics[topic]; !ignored {
				s.log.Warn().
					Str("topic", topic).
					Strs("types", types).
					Msg("Ignoring ROS 2 topic with more than one type")
				s.ignoredROS2Topics[topic] = struct{}{}
			}
			continue
		}
		if _, ignored := s.ignoredROS2Topics[topic]; ignored {
			continue
		}
		if !s.ros2TopicFilter.Matches(topic) {
			s.log.Info().Str("topic", topic).Msg("Ignoring ROS 2 topic, does not match any regex")
			s.ignoredROS2Topics[topic] = struct{}{}
			continue
		}
		typeName := types[0]

		publisherCount, err := s.ros2.CountPublishers(ctx, topic)
		if err != nil {
			s.log.Error().Err(err).Str("topic", topic).Msg("Failed to count ROS 2 publishers")
			continue
		}
		subscriberCount, err := s.ros2.CountSubscribers(ctx, topic)
		if err != nil {
			s.log.Error().Err(err).Str("topic", topic).Msg("Failed to count ROS 2 subscribers")
			continue
		}
		if _, ok := bridged1to2[topic]; ok && publisherCount > 0 {
			publisherCount--
		}
		if _, ok := bridged2to1[topic]; ok && subscriberCount > 0 {
			subscriberCount--
		}

		if publisherCount > 0 {
			currentPublishers[topic] = typeName
		}
		if subscriberCount > 0 {
			currentSubscribers[topic] = typeName
		}
		if s.cfg.ShowIntrospection {
			s.log.Info().
				Str("topic", topic).
				Str("type", typeName).
				Int("publishers", publisherCount).
				Int("subscribers", subscriberCount).
				Msg("ROS 2 topic")
		}
	}

	services, err := s.ros2.ServiceNamesAndTypes(ctx)
	if err != nil {
		// Keep the previous service snapshot in force but still
		// publish the topic snapshot and reconcile.
		s.log.Error().Err(err).Msg("Failed to poll ROS 2 graph for services")
	} else {
		s.reg.setROS2Services(s.activeROS2Services(services))
	}

	s.reg.setROS2Topics(currentPublishers, currentSubscribers)
	s.updateBridges()
}

// activeROS2Services filters the ROS 2 service listing into service
// details. ROS 2 service discovery reports types directly, so no probing
// is needed on this side.
func (s *Service) activeROS2Services(services map[string][]string) map[string]ServiceDetail {
	active := make(map[string]ServiceDetail)
	for name, types := range services {
		if len(types) == 0 {
			continue
		}
		if len(types) > 1 {
			if _, ignored := s.ignoredROS2Services[name]; !ignored {
				s.log.Warn().
					Str("service", name).
					Strs("types", types).
					Msg("Ignoring ROS 2 service with more than one type")
				s.ignoredROS2Services[name] = struct{}{}
			}
			continue
		}
		if _, ignored := s.ignoredROS2Services[name]; ignored {
			continue
		}
		if !s.ros2ServiceFilter.Matches(name) {
			s.log.Info().Str("service", name).Msg("Ignoring ROS 2 service, does not match any regex")
			s.ignoredROS2Services[name] = struct{}{}
			continue
		}

		typeName := types[0]
		slash := strings.Index(typeName, "/")
		if slash < 0 {
			s.log.Error().Str("service", name).Str("type", typeName).Msg("Invalid ROS 2 service type, skipping")
			continue
		}
		active[name] = ServiceDetail{
			Type:    typeName,
			Package: typeName[:slash],
			Name:    typeName[slash+1:],
		}
	}
	return active
}
