// Copyright 2024-2026 Rapyuta Robotics

// Package bridge implements the dynamic whitelist bridge between a ROS 1
// graph and a ROS 2 graph: it polls both sides' discovery, filters topic
// and service names through regex allow-lists, and reconciles a registry of
// live forwarding bridges against what discovery reports.
//
// # Core Types
//
// [Service] owns the two poll loops, the per-side name filters and their
// sticky ignored-name sets, and the shared registry. It is wired to its
// collaborators through narrow interfaces so the reconciliation logic is
// testable without a live ROS graph on either side.
//
// [ROS1Discovery] and [ROS2Discovery] expose each side's discovery
// mechanism. [Factory] constructs the actual forwarding bridges from
// resolved type pairs; the bridge core never touches message payloads.
//
// # Reconciliation Policy
//
// Topic bridges are created when a source-side publisher has a matching
// destination-side subscriber (or unconditionally under a bridge-all flag
// with a known static type mapping), and replaced in place when the type
// pairing changes. Topic bridges whose backing publisher or subscriber has
// disappeared are deliberately never removed: proactive removal was
// observed to cause bridge flapping on unreliable networks, so stale
// entries stay in the registry for the life of the process. Service
// bridges, by contrast, are pruned as soon as the service leaves its
// owning side's active set.
//
// # Sub-packages
//
//   - tcpros encodes and decodes TCPROS connection headers for the
//     service type probe handshake.
package bridge
