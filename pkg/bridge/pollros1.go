// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"time"
)

// runROS1Poller polls the ROS 1 master on the configured interval until
// ctx is cancelled.
func (s *Service) runROS1Poller(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollROS1Once(ctx)
		}
	}
}

// pollROS1Once assembles one ROS 1 discovery snapshot, publishes it and
// runs a reconciliation pass. Any discovery error skips this cycle's
// snapshot; the previous one stays in force.
func (s *Service) pollROS1Once(ctx context.Context) {
	state, err := s.ros1.SystemState(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get system state from ROS 1 master")
		return
	}

	activePublishers := s.activeROS1Topics(state.Publishers)
	activeSubscribers := s.activeROS1Topics(state.Subscribers)

	// Services: names the master reports, filtered, then probed for
	// their type. A failed probe leaves the service out of this cycle's
	// active set; it is retried on the next poll.
	activeServices := make(map[string]ServiceDetail)
	for _, name := range state.Services {
		if _, ignored := s.ignoredROS1Services[name]; ignored {
			continue
		}
		if !s.ros1ServiceFilter.Matches(name) {
			s.log.Info().Str("service", name).Msg("Ignoring ROS 1 service, does not match any regex")
			s.ignoredROS1Services[name] = struct{}{}
			continue
		}
		detail, err := s.prober.ProbeServiceType(ctx, name)
		if err != nil {
			s.log.Error().Err(err).Str("service", name).Msg("Service type probe failed")
			continue
		}
		activeServices[name] = detail
	}
	s.reg.setROS1Services(activeServices)

	topicTypes, err := s.ros1.TopicTypes(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to poll ROS 1 master for topic types")
		return
	}

	currentPublishers := make(map[string]string)
	currentSubscribers := make(map[string]string)
	for topic, typeName := range topicTypes {
		_, hasPublisher := activePublishers[topic]
		_, hasSubscriber := activeSubscribers[topic]
		if !hasPublisher && !hasSubscriber {
			continue
		}
		if hasPublisher {
			currentPublishers[topic] = typeName
		}
		if hasSubscriber {
			currentSubscribers[topic] = typeName
		}
		if s.cfg.ShowIntrospection {
			s.log.Info().
				Str("topic", topic).
				Str("type", typeName).
				Bool("has_publisher", hasPublisher).
				Bool("has_subscriber", hasSubscriber).
				Msg("ROS 1 topic")
		}
	}

	// ROS 1 subscribers don't report a type to the master, so
	// subscriber-only topics still get an entry with an empty type. The
	// reconciler fills the type in from a ROS 2 publisher or a static
	// mapping.
	for topic := range activeSubscribers {
		if _, ok := currentSubscribers[topic]; !ok {
			currentSubscribers[topic] = ""
			if s.cfg.ShowIntrospection {
				s.log.Info().Str("topic", topic).Msg("ROS 1 subscriber with unknown type")
			}
		}
	}

	s.reg.setROS1Topics(currentPublishers, currentSubscribers)
	s.updateBridges()
}

// activeROS1Topics filters one role's participant listing down to the set
// of active topic names. Only the first participant that is not the bridge
// itself is considered; one foreign participant is enough to make the
// topic active, and the ignored-name set keeps rejected names from being
// re-evaluated or re-logged.
func (s *Service) activeROS1Topics(participants map[string][]string) map[string]struct{} {
	active := make(map[string]struct{})
	for topic, nodes := range participants {
		for _, node := range nodes {
			if node == s.nodeName {
				continue
			}
			if _, ignored := s.ignoredROS1Topics[topic]; !ignored {
				if s.ros1TopicFilter.Matches(topic) {
					active[topic] = struct{}{}
				} else {
					s.log.Info().Str("topic", topic).Msg("Ignoring ROS 1 topic, does not match any regex")
					s.ignoredROS1Topics[topic] = struct{}{}
				}
			}
			break
		}
	}
	return active
}
