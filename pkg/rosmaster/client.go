// Copyright 2024-2026 Rapyuta Robotics

// Package rosmaster is a client for the ROS 1 master's XML-RPC API,
// covering the calls the dynamic bridge needs: system state, topic types,
// service lookup and parameter reads.
package rosmaster

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rapyuta-robotics/ros1-bridge/internal/xmlrpc"
	"github.com/rapyuta-robotics/ros1-bridge/pkg/bridge"
)

// Client talks to one ROS 1 master. It implements bridge.ROS1Discovery
// and bridge.ParamSource.
type Client struct {
	callerID string
	rpc      *xmlrpc.Client
	log      zerolog.Logger
}

var (
	_ bridge.ROS1Discovery = (*Client)(nil)
	_ bridge.ParamSource   = (*Client)(nil)
)

// NewClient creates a master client. callerID is the bridge's graph name,
// reported on every API call.
func NewClient(masterURL, callerID string, log zerolog.Logger) *Client {
	return &Client{
		callerID: callerID,
		rpc:      xmlrpc.NewClient(masterURL),
		log:      log.With().Str("component", "rosmaster").Logger(),
	}
}

// call unwraps the master's [code, statusMessage, value] response triple.
func (c *Client) call(ctx context.Context, method string, args ...any) (xmlrpc.Value, error) {
	callArgs := append([]any{c.callerID}, args...)
	response, err := c.rpc.Call(ctx, method, callArgs...)
	if err != nil {
		return xmlrpc.Value{}, err
	}
	triple, ok := response.Slice()
	if !ok || len(triple) != 3 {
		return xmlrpc.Value{}, fmt.Errorf("rosmaster: %s: malformed response", method)
	}
	code, ok := triple[0].Int()
	if !ok {
		return xmlrpc.Value{}, fmt.Errorf("rosmaster: %s: missing status code", method)
	}
	if code != 1 {
		status, _ := triple[1].String()
		return xmlrpc.Value{}, fmt.Errorf("rosmaster: %s failed with code %d: %s", method, code, status)
	}
	return triple[2], nil
}

// SystemState implements bridge.ROS1Discovery.
func (c *Client) SystemState(ctx context.Context) (*bridge.SystemState, error) {
	payload, err := c.call(ctx, "getSystemState")
	if err != nil {
		return nil, err
	}
	parts, ok := payload.Slice()
	if !ok {
		return nil, fmt.Errorf("rosmaster: getSystemState: payload is not an array")
	}

	state := &bridge.SystemState{
		Publishers:  make(map[string][]string),
		Subscribers: make(map[string][]string),
	}
	if len(parts) >= 1 {
		state.Publishers = parseParticipants(parts[0])
	}
	if len(parts) >= 2 {
		state.Subscribers = parseParticipants(parts[1])
	}
	if len(parts) >= 3 {
		entries, ok := parts[2].Slice()
		if ok {
			for _, entry := range entries {
				pair, ok := entry.Slice()
				if !ok || len(pair) < 1 {
					continue
				}
				if name, ok := pair[0].String(); ok && name != "" {
					state.Services = append(state.Services, name)
				}
			}
		}
	}
	return state, nil
}

// parseParticipants decodes one [[name, [node...]], ...] listing.
func parseParticipants(v xmlrpc.Value) map[string][]string {
	out := make(map[string][]string)
	entries, ok := v.Slice()
	if !ok {
		return out
	}
	for _, entry := range entries {
		pair, ok := entry.Slice()
		if !ok || len(pair) < 2 {
			continue
		}
		name, ok := pair[0].String()
		if !ok || name == "" {
			continue
		}
		nodeValues, ok := pair[1].Slice()
		if !ok {
			continue
		}
		nodes := make([]string, 0, len(nodeValues))
		for _, nodeValue := range nodeValues {
			if node, ok := nodeValue.String(); ok {
				nodes = append(nodes, node)
			}
		}
		out[name] = nodes
	}
	return out
}

// TopicTypes implements bridge.ROS1Discovery.
func (c *Client) TopicTypes(ctx context.Context) (map[string]string, error) {
	payload, err := c.call(ctx, "getTopicTypes")
	if err != nil {
		return nil, err
	}
	entries, ok := payload.Slice()
	if !ok {
		return nil, fmt.Errorf("rosmaster: getTopicTypes: payload is not an array")
	}
	types := make(map[string]string, len(entries))
	for _, entry := range entries {
		pair, ok := entry.Slice()
		if !ok || len(pair) < 2 {
			continue
		}
		name, nameOK := pair[0].String()
		typeName, typeOK := pair[1].String()
		if nameOK && typeOK && name != "" {
			types[name] = typeName
		}
	}
	return types, nil
}

// LookupService implements bridge.ROS1Discovery. The master returns a
// rosrpc:// URI pointing at the service's TCPROS listener.
func (c *Client) LookupService(ctx context.Context, name string) (string, int, error) {
	payload, err := c.call(ctx, "lookupService", name)
	if err != nil {
		return "", 0, err
	}
	uri, ok := payload.String()
	if !ok {
		return "", 0, fmt.Errorf("rosmaster: lookupService %s: payload is not a string", name)
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", 0, fmt.Errorf("rosmaster: lookupService %s: bad URI %q: %w", name, uri, err)
	}
	if parsed.Scheme != "rosrpc" || parsed.Hostname() == "" || parsed.Port() == "" {
		return "", 0, fmt.Errorf("rosmaster: lookupService %s: bad URI %q", name, uri)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		return "", 0, fmt.Errorf("rosmaster: lookupService %s: bad port in %q: %w", name, uri, err)
	}
	return parsed.Hostname(), port, nil
}

// StringListParam implements bridge.ParamSource. The parameter must be an
// array of strings; any other shape is an error.
func (c *Client) StringListParam(ctx context.Context, name string) ([]string, error) {
	payload, err := c.call(ctx, "getParam", name)
	if err != nil {
		return nil, err
	}
	values, ok := payload.Slice()
	if !ok {
		return nil, fmt.Errorf("rosmaster: param %s is not an array", name)
	}
	out := make([]string, 0, len(values))
	for i, value := range values {
		s, ok := value.String()
		if !ok {
			return nil, fmt.Errorf("rosmaster: param %s element %d is not a string", name, i)
		}
		out = append(out, s)
	}
	return out, nil
}
