// Package health implements the gRPC transport for server-keeper health checks.
//
// It exposes the standard grpc.health.v1 service with two named services:
// the controller itself and the managed process, which is SERVING only while
// the process runs. A small client is included for probes.
package health
