// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the dynamic bridge configuration. Zero values are filled
// from the embedded example config by LoadConfig.
type Config struct {
	// NodeSuffix uniquely identifies this bridge instance; the node
	// name on both sides is "ros12_bridge_<suffix>".
	NodeSuffix string `yaml:"node_suffix"`

	// PollInterval is the discovery poll period for both sides, as a
	// Go duration string. Parsed by PostProcess.
	PollInterval string `yaml:"poll_interval"`

	// QueueDepth is passed to the factory for both ends of every topic
	// bridge.
	QueueDepth int `yaml:"queue_depth"`

	// BridgeAll*Topics bridge topics without a live destination-side
	// subscriber, using the factory's static type mapping.
	BridgeAll1to2Topics bool `yaml:"bridge_all_1to2_topics"`
	BridgeAll2to1Topics bool `yaml:"bridge_all_2to1_topics"`

	// ShowIntrospection logs every discovered topic with its type and
	// participant counts on each poll.
	ShowIntrospection bool `yaml:"show_introspection"`

	// TopicRegexParam and ServiceRegexParam name the parameters holding
	// the allow-list pattern arrays, read once at startup.
	TopicRegexParam   string `yaml:"topic_regex_param"`
	ServiceRegexParam string `yaml:"service_regex_param"`

	ROS1MasterURL string `yaml:"ros1_master_url"`
	ROS2DaemonURL string `yaml:"ros2_daemon_url"`

	pollInterval time.Duration `yaml:"-"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// DefaultConfig returns the embedded example configuration.
func DefaultConfig() Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(ExampleConfig), &cfg); err != nil {
		panic(fmt.Sprintf("embedded example config is invalid: %v", err))
	}
	return cfg
}

// LoadConfig reads a YAML config file over the embedded defaults. An empty
// path returns the defaults unchanged. PostProcess is not called; the
// caller runs it after applying any flag overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// PostProcess validates the config and parses derived fields.
func (c *Config) PostProcess() error {
	if c.NodeSuffix == "" {
		return fmt.Errorf("node_suffix must not be empty")
	}
	if c.PollInterval == "" {
		c.PollInterval = "1s"
	}
	interval, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", interval)
	}
	c.pollInterval = interval
	if c.QueueDepth <= 0 {
		return fmt.Errorf("queue_depth must be positive, got %d", c.QueueDepth)
	}
	if c.TopicRegexParam == "" || c.ServiceRegexParam == "" {
		return fmt.Errorf("topic_regex_param and service_regex_param must not be empty")
	}
	return nil
}

// Interval returns the parsed poll interval. Valid after PostProcess.
func (c *Config) Interval() time.Duration {
	return c.pollInterval
}

// NodeName returns the bridge's fully qualified graph name, used as the
// caller ID on master API calls and for self-exclusion against discovered
// participants.
func (c *Config) NodeName() string {
	return "/ros12_bridge_" + c.NodeSuffix
}
