// Copyright 2024-2026 Rapyuta Robotics

// Package rosdaemon is a client for the ROS 2 CLI daemon's XML-RPC API,
// which exposes the graph discovery calls the dynamic bridge needs without
// requiring an in-process DDS participant.
package rosdaemon

import (
	"context"
	"fmt"

	"github.com/rapyuta-robotics/ros1-bridge/internal/xmlrpc"
	"github.com/rapyuta-robotics/ros1-bridge/pkg/bridge"
)

// Client talks to one ROS 2 CLI daemon. It implements
// bridge.ROS2Discovery.
type Client struct {
	rpc *xmlrpc.Client
}

var _ bridge.ROS2Discovery = (*Client)(nil)

// NewClient creates a daemon client for the given endpoint, e.g.
// "http://127.0.0.1:11511".
func NewClient(daemonURL string) *Client {
	return &Client{rpc: xmlrpc.NewClient(daemonURL)}
}

// TopicNamesAndTypes implements bridge.ROS2Discovery.
func (c *Client) TopicNamesAndTypes(ctx context.Context) (map[string][]string, error) {
	response, err := c.rpc.Call(ctx, "get_topic_names_and_types")
	if err != nil {
		return nil, err
	}
	return parseNamesAndTypes("get_topic_names_and_types", response)
}

// ServiceNamesAndTypes implements bridge.ROS2Discovery.
func (c *Client) ServiceNamesAndTypes(ctx context.Context) (map[string][]string, error) {
	response, err := c.rpc.Call(ctx, "get_service_names_and_types")
	if err != nil {
		return nil, err
	}
	return parseNamesAndTypes("get_service_names_and_types", response)
}

// CountPublishers implements bridge.ROS2Discovery.
func (c *Client) CountPublishers(ctx context.Context, topic string) (int, error) {
	return c.count(ctx, "count_publishers", topic)
}

// CountSubscribers implements bridge.ROS2Discovery.
func (c *Client) CountSubscribers(ctx context.Context, topic string) (int, error) {
	return c.count(ctx, "count_subscribers", topic)
}

func (c *Client) count(ctx context.Context, method, topic string) (int, error) {
	response, err := c.rpc.Call(ctx, method, topic)
	if err != nil {
		return 0, err
	}
	n, ok := response.Int()
	if !ok {
		return 0, fmt.Errorf("rosdaemon: %s %s: response is not an int", method, topic)
	}
	return n, nil
}

// parseNamesAndTypes decodes a [[name, [type...]], ...] listing.
func parseNamesAndTypes(method string, v xmlrpc.Value) (map[string][]string, error) {
	entries, ok := v.Slice()
	if !ok {
		return nil, fmt.Errorf("rosdaemon: %s: response is not an array", method)
	}
	out := make(map[string][]string, len(entries))
	for _, entry := range entries {
		pair, ok := entry.Slice()
		if !ok || len(pair) < 2 {
			continue
		}
		name, ok := pair[0].String()
		if !ok || name == "" {
			continue
		}
		typeValues, ok := pair[1].Slice()
		if !ok {
			continue
		}
		types := make([]string, 0, len(typeValues))
		for _, typeValue := range typeValues {
			if typeName, ok := typeValue.String(); ok {
				types = append(types, typeName)
			}
		}
		out[name] = types
	}
	return out, nil
}
