// Copyright 2024-2026 Rapyuta Robotics

package bridge

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rapyuta-robotics/ros1-bridge/pkg/bridge/tcpros"
)

// ServiceResolver resolves a service name to its TCPROS listener address.
// ROS1Discovery satisfies this.
type ServiceResolver interface {
	LookupService(ctx context.Context, name string) (host string, port int, err error)
}

// TCPProber recovers a ROS 1 service's type by connecting to its TCPROS
// listener and exchanging probe connection headers. ROS 1 service
// discovery reports names only, so this is the only way to learn the type
// without calling the service.
type TCPProber struct {
	// Resolver looks up the service's listener address.
	Resolver ServiceResolver
	// CallerID is the bridge's own node name, sent in the probe header.
	CallerID string
}

var _ ServiceTypeProber = (*TCPProber)(nil)

// ProbeServiceType performs one synchronous probe handshake. Any failure
// aborts the probe for this cycle only; the caller retries on the next
// poll. The dial respects ctx; the handshake itself is synchronous I/O.
func (p *TCPProber) ProbeServiceType(ctx context.Context, service string) (ServiceDetail, error) {
	host, port, err := p.Resolver.LookupService(ctx, service)
	if err != nil {
		return ServiceDetail{}, fmt.Errorf("look up service %q: %w", service, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return ServiceDetail{}, fmt.Errorf("connect to %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	err = tcpros.WriteHeader(conn, map[string]string{
		"probe":    "1",
		"md5sum":   "*",
		"service":  service,
		"callerid": p.CallerID,
	})
	if err != nil {
		return ServiceDetail{}, fmt.Errorf("send probe header for %q: %w", service, err)
	}

	response, err := tcpros.ReadHeader(conn)
	if err != nil {
		return ServiceDetail{}, fmt.Errorf("read probe response for %q: %w", service, err)
	}

	typeName, ok := response["type"]
	if !ok {
		return ServiceDetail{}, fmt.Errorf("probe response for %q has no type field", service)
	}
	slash := strings.Index(typeName, "/")
	if slash < 0 {
		return ServiceDetail{}, fmt.Errorf("service %q has invalid type %q", service, typeName)
	}
	return ServiceDetail{
		Type:    typeName,
		Package: typeName[:slash],
		Name:    typeName[slash+1:],
	}, nil
}
