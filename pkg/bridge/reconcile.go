// Copyright 2024-2026 Rapyuta Robotics

package bridge

import "errors"

// updateBridges runs one full reconciliation pass under the registry lock.
// Both pollers call it after publishing a fresh snapshot, so it runs with
// the caller's own snapshot current and the other side's snapshot being
// whatever was most recently published. Passes run in a fixed order: topic
// bridges 1to2, topic bridges 2to1, service bridge creation, service
// bridge pruning.
//
// Nothing here is fatal. Factory failures leave the name unbridged for
// this cycle and discovery retries it on the next poll.
func (s *Service) updateBridges() {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()

	s.createTopicBridges1to2()
	s.createTopicBridges2to1()

	// Stale topic bridges are intentionally not pruned. An earlier
	// revision removed entries whose backing publisher or subscriber had
	// left the graph, and that caused bridges to flap on unreliable
	// networks where discovery intermittently under-reports
	// participants. Topic bridge entries therefore live until replaced
	// by a type change or until the process exits. Services are pruned
	// below: their lookup-then-connect call pattern tolerates absence,
	// unlike a silently dead topic pipe.

	s.createServiceBridges("ros1", s.reg.ros1Services)
	s.createServiceBridges("ros2", s.reg.ros2Services)
	s.pruneServiceBridges("ros1", s.reg.ros1Services, s.reg.serviceBridges2to1)
	s.pruneServiceBridges("ros2", s.reg.ros2Services, s.reg.serviceBridges1to2)
}

// createTopicBridges1to2 bridges every topic with an active ROS 1
// publisher towards ROS 2. Must be called with the registry lock held.
func (s *Service) createTopicBridges1to2() {
	for topic, ros1Type := range s.reg.ros1Publishers {
		ros2Type, ok := s.reg.ros2Subscribers[topic]
		if !ok {
			if !s.cfg.BridgeAll1to2Topics {
				continue
			}
			// No live subscriber: bridge towards the statically
			// mapped type, if one is known.
			ros2Type, ok = s.factory.Mapping1to2(ros1Type)
			if !ok {
				continue
			}
		}

		if existing, ok := s.reg.bridges1to2[topic]; ok {
			if existing.ros1Type == ros1Type && existing.ros2Type == ros2Type {
				continue
			}
			s.destroyTopicBridge("1to2", topic, existing)
			delete(s.reg.bridges1to2, topic)
			s.log.Info().Str("topic", topic).Msg("Replacing 1to2 bridge")
		}

		handle, err := s.factory.CreateBridge1to2(ros1Type, topic, s.cfg.QueueDepth, ros2Type, s.cfg.QueueDepth)
		if err != nil {
			event := s.log.Error().Err(err).
				Str("topic", topic).
				Str("ros1_type", ros1Type).
				Str("ros2_type", ros2Type)
			if errors.Is(err, ErrNoConversion) {
				event.Msg("Failed to create 1to2 bridge, check the list of supported pairs with --print-pairs")
			} else {
				event.Msg("Failed to create 1to2 bridge")
			}
			continue
		}
		s.reg.bridges1to2[topic] = &topicBridge{ros1Type: ros1Type, ros2Type: ros2Type, handle: handle}
		s.log.Info().
			Str("topic", topic).
			Str("ros1_type", ros1Type).
			Str("ros2_type", ros2Type).
			Msg("Created 1to2 bridge")
	}
}

// createTopicBridges2to1 is the mirror pass. One asymmetry: ROS 1
// subscribers don't report a type, so an existing bridge whose recorded
// ROS 1 type is empty is treated as type-compatible with whatever the
// subscriber now reports, avoiding replace churn on every cycle.
func (s *Service) createTopicBridges2to1() {
	for topic, ros2Type := range s.reg.ros2Publishers {
		ros1Type, ok := s.reg.ros1Subscribers[topic]
		if !ok {
			if !s.cfg.BridgeAll2to1Topics {
				continue
			}
			ros1Type, ok = s.factory.Mapping2to1(ros2Type)
			if !ok {
				continue
			}
		}

		if existing, ok := s.reg.bridges2to1[topic]; ok {
			if (existing.ros1Type == ros1Type || existing.ros1Type == "") &&
				existing.ros2Type == ros2Type {
				continue
			}
			s.destroyTopicBridge("2to1", topic, existing)
			delete(s.reg.bridges2to1, topic)
			s.log.Info().Str("topic", topic).Msg("Replacing 2to1 bridge")
		}

		handle, err := s.factory.CreateBridge2to1(ros2Type, topic, s.cfg.QueueDepth, ros1Type, s.cfg.QueueDepth)
		if err != nil {
			event := s.log.Error().Err(err).
				Str("topic", topic).
				Str("ros2_type", ros2Type).
				Str("ros1_type", ros1Type)
			if errors.Is(err, ErrNoConversion) {
				event.Msg("Failed to create 2to1 bridge, check the list of supported pairs with --print-pairs")
			} else {
				event.Msg("Failed to create 2to1 bridge")
			}
			continue
		}
		s.reg.bridges2to1[topic] = &topicBridge{ros1Type: ros1Type, ros2Type: ros2Type, handle: handle}
		s.log.Info().
			Str("topic", topic).
			Str("ros2_type", ros2Type).
			Str("ros1_type", ros1Type).
			Msg("Created 2to1 bridge")
	}
}

// destroyTopicBridge releases a replaced entry's handle. Close failures
// are logged and the replacement proceeds; the handle is gone from the
// registry either way.
func (s *Service) destroyTopicBridge(direction, topic string, entry *topicBridge) {
	if err := entry.handle.Close(); err != nil {
		s.log.Warn().Err(err).
			Str("direction", direction).
			Str("topic", topic).
			Msg("Error closing replaced topic bridge")
	}
}

// createServiceBridges bridges every active service discovered on the
// given domain in the direction away from it. A service name is bridged in
// at most one direction: names already present in either service bridge
// map are left alone. Must be called with the registry lock held.
func (s *Service) createServiceBridges(domain string, services map[string]ServiceDetail) {
	for name, detail := range services {
		if _, ok := s.reg.serviceBridges1to2[name]; ok {
			continue
		}
		if _, ok := s.reg.serviceBridges2to1[name]; ok {
			continue
		}

		factory, ok := s.factory.ServiceFactory(domain, detail.Package, detail.Name)
		if !ok {
			// Missing service conversions are expected; warn once
			// per name and move on.
			warnKey := domain + ":" + name
			if _, warned := s.reg.warnedServices[warnKey]; !warned {
				s.reg.warnedServices[warnKey] = struct{}{}
				s.log.Warn().
					Str("domain", domain).
					Str("service", name).
					Str("type", detail.Type).
					Msg("Cannot bridge service, no conversion factory")
			}
			continue
		}

		// Services discovered on ROS 1 are served into ROS 1 from ROS 2
		// clients (2to1), and vice versa.
		var handle Handle
		var err error
		if domain == "ros1" {
			handle, err = factory.ServiceBridge2to1(name)
		} else {
			handle, err = factory.ServiceBridge1to2(name)
		}
		if err != nil {
			s.log.Error().Err(err).
				Str("domain", domain).
				Str("service", name).
				Msg("Failed to create service bridge")
			continue
		}
		if domain == "ros1" {
			s.reg.serviceBridges2to1[name] = handle
			s.log.Info().Str("service", name).Msg("Created 2to1 bridge for service")
		} else {
			s.reg.serviceBridges1to2[name] = handle
			s.log.Info().Str("service", name).Msg("Created 1to2 bridge for service")
		}
	}
}

// pruneServiceBridges removes bridges for services that have left the
// given domain's active set. On a Close failure the entry stays in the
// registry rather than leaking the handle silently; Close is idempotent
// and is retried on the next cycle. Must be called with the registry lock
// held.
func (s *Service) pruneServiceBridges(domain string, services map[string]ServiceDetail, bridges map[string]Handle) {
	for name, handle := range bridges {
		if _, active := services[name]; active {
			continue
		}
		if err := handle.Close(); err != nil {
			s.log.Error().Err(err).
				Str("domain", domain).
				Str("service", name).
				Msg("Error removing service bridge")
			continue
		}
		delete(bridges, name)
		s.log.Info().Str("domain", domain).Str("service", name).Msg("Removed service bridge")
	}
}
