// Copyright 2024-2026 Rapyuta Robotics

// Command dynamic-bridge runs the dynamic whitelist bridge between a ROS 1
// graph and a ROS 2 graph. It discovers topics and services on both sides,
// filters them through regex allow-lists held in ROS 1 parameters, and
// creates forwarding bridges for every name with a registered type
// conversion.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"go.mau.fi/util/exerrors"

	"github.com/rapyuta-robotics/ros1-bridge/pkg/bridge"
	"github.com/rapyuta-robotics/ros1-bridge/pkg/conversions"
	"github.com/rapyuta-robotics/ros1-bridge/pkg/rosdaemon"
	"github.com/rapyuta-robotics/ros1-bridge/pkg/rosmaster"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("dynamic-bridge", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:")
		flags.PrintDefaults()
	}

	var (
		printPairs        = flags.Bool("print-pairs", false, "Print a list of the supported ROS 2 <=> ROS 1 conversion pairs and exit.")
		showIntrospection = flags.Bool("show-introspection", false, "Print output of introspection of both sides of the bridge.")
		bridgeAllTopics   = flags.Bool("bridge-all-topics", false, "Bridge all topics in both directions, whether or not there is a matching subscriber.")
		bridgeAll1to2     = flags.Bool("bridge-all-1to2-topics", false, "Bridge all ROS 1 topics to ROS 2, whether or not there is a matching subscriber.")
		bridgeAll2to1     = flags.Bool("bridge-all-2to1-topics", false, "Bridge all ROS 2 topics to ROS 1, whether or not there is a matching subscriber.")
		topicRegexList    = flags.String("topic-regex-list", "topics_re", "ROS 1 param holding the list of whitelist topic regexes.")
		serviceRegexList  = flags.String("service-regex-list", "services_re", "ROS 1 param holding the list of whitelist service regexes.")
		nodeSuffix        = flags.String("node-suffix", "default", "Suffix used to uniquely identify this node as ros12_bridge_<suffix>.")
		configPath        = flags.String("config", "", "Path to a YAML config file; flags override its values.")
	)
	flags.BoolP("help", "h", false, "This message.")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flags.GetBool("help"); help {
		flags.Usage()
		return nil
	}

	registry := conversions.Default()
	if *printPairs {
		printSupportedPairs(registry)
		return nil
	}

	cfg := exerrors.Must(bridge.LoadConfig(*configPath))
	if *showIntrospection {
		cfg.ShowIntrospection = true
	}
	if *bridgeAllTopics || *bridgeAll1to2 {
		cfg.BridgeAll1to2Topics = true
	}
	if *bridgeAllTopics || *bridgeAll2to1 {
		cfg.BridgeAll2to1Topics = true
	}
	if flags.Changed("topic-regex-list") {
		cfg.TopicRegexParam = *topicRegexList
	}
	if flags.Changed("service-regex-list") {
		cfg.ServiceRegexParam = *serviceRegexList
	}
	if flags.Changed("node-suffix") {
		cfg.NodeSuffix = *nodeSuffix
	}
	if err := cfg.PostProcess(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger()

	master := rosmaster.NewClient(cfg.ROS1MasterURL, cfg.NodeName(), log)
	daemon := rosdaemon.NewClient(cfg.ROS2DaemonURL)

	service := bridge.New(cfg, log, bridge.Collaborators{
		ROS1:    master,
		ROS2:    daemon,
		Params:  master,
		Factory: registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return service.Run(ctx)
}

func printSupportedPairs(registry *conversions.Registry) {
	messagePairs := registry.MessagePairs()
	if len(messagePairs) > 0 {
		fmt.Println("Supported ROS 2 <=> ROS 1 message type conversion pairs:")
		for _, pair := range messagePairs {
			fmt.Printf("  - '%s' (ROS 2) <=> '%s' (ROS 1)\n", pair.ROS2Type, pair.ROS1Type)
		}
	} else {
		fmt.Println("No message type conversion pairs supported.")
	}
	servicePairs := registry.ServicePairs()
	if len(servicePairs) > 0 {
		fmt.Println("Supported ROS 2 <=> ROS 1 service type conversion pairs:")
		for _, pair := range servicePairs {
			fmt.Printf("  - '%s/%s' (%s)\n", pair.Package, pair.Name, pair.Domain)
		}
	} else {
		fmt.Println("No service type conversion pairs supported.")
	}
}
