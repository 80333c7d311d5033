// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Collaborators are the external systems the bridge core is wired to.
type Collaborators struct {
	ROS1    ROS1Discovery
	ROS2    ROS2Discovery
	Params  ParamSource
	Factory Factory

	// Prober overrides the service type prober. Nil selects a TCPProber
	// resolving through ROS1.
	Prober ServiceTypeProber
}

// Service is the dynamic bridge: two independent discovery pollers feeding
// one reconciler over a shared registry.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	ros1    ROS1Discovery
	ros2    ROS2Discovery
	params  ParamSource
	factory Factory
	prober  ServiceTypeProber

	reg *registry

	// Per-side filters. The compiled pattern slices are shared between
	// sides; match caches and ignored sets are not, so one side's
	// filtering decisions never leak into the other's log suppression.
	ros1TopicFilter   *AllowList
	ros1ServiceFilter *AllowList
	ros2TopicFilter   *AllowList
	ros2ServiceFilter *AllowList

	// Sticky ignored-name sets: names that failed the filter (or were
	// multi-typed) are logged once and never re-evaluated. These are
	// never reset while the process runs.
	ignoredROS1Topics   map[string]struct{}
	ignoredROS1Services map[string]struct{}
	ignoredROS2Topics   map[string]struct{}
	ignoredROS2Services map[string]struct{}

	nodeName string
}

// New assembles a Service. cfg must already be post-processed.
func New(cfg Config, log zerolog.Logger, c Collaborators) *Service {
	s := &Service{
		cfg:                 cfg,
		log:                 log.With().Str("component", "bridge").Logger(),
		ros1:                c.ROS1,
		ros2:                c.ROS2,
		params:              c.Params,
		factory:             c.Factory,
		prober:              c.Prober,
		reg:                 newRegistry(),
		ignoredROS1Topics:   make(map[string]struct{}),
		ignoredROS1Services: make(map[string]struct{}),
		ignoredROS2Topics:   make(map[string]struct{}),
		ignoredROS2Services: make(map[string]struct{}),
		nodeName:            cfg.NodeName(),
	}
	if s.prober == nil {
		s.prober = &TCPProber{Resolver: c.ROS1, CallerID: s.nodeName}
	}
	return s
}

// Start reads the allow-list parameters (exactly once; they are never
// refreshed at runtime) and compiles the per-side filters. A missing or
// malformed parameter degrades that list to allow-nothing rather than
// failing startup.
func (s *Service) Start(ctx context.Context) error {
	topicPatterns := s.loadPatternList(ctx, s.cfg.TopicRegexParam)
	servicePatterns := s.loadPatternList(ctx, s.cfg.ServiceRegexParam)

	s.ros1TopicFilter = NewAllowList(topicPatterns)
	s.ros2TopicFilter = NewAllowList(topicPatterns)
	s.ros1ServiceFilter = NewAllowList(servicePatterns)
	s.ros2ServiceFilter = NewAllowList(servicePatterns)

	s.log.Info().
		Str("node", s.nodeName).
		Int("topic_patterns", len(topicPatterns)).
		Int("service_patterns", len(servicePatterns)).
		Dur("poll_interval", s.cfg.Interval()).
		Msg("Dynamic bridge starting")
	return nil
}

// loadPatternList fetches and compiles one allow-list parameter. Errors
// degrade to an empty pattern list, which matches nothing.
func (s *Service) loadPatternList(ctx context.Context, param string) []*regexp.Regexp {
	values, err := s.params.StringListParam(ctx, param)
	if err != nil {
		s.log.Error().Err(err).
			Str("param", param).
			Msg("Allow-list parameter missing or not a string array, ignoring regex list")
		return nil
	}
	patterns, err := CompilePatterns(values)
	if err != nil {
		s.log.Error().Err(err).
			Str("param", param).
			Msg("Allow-list parameter has an invalid pattern, ignoring regex list")
		return nil
	}
	return patterns
}

// Run starts both poll loops and blocks until ctx is cancelled or a
// poller exits. The ROS 2 poller starts half a second after the ROS 1
// poller so the first reconciliation already sees a ROS 1 snapshot.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.runROS1Poller(ctx)
	})
	group.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		return s.runROS2Poller(ctx)
	})

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		// Normal shutdown.
		s.log.Info().Msg("Dynamic bridge stopped")
		return nil
	}
	return err
}
