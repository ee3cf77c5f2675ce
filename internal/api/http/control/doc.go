// Package control implements the HTTP control API.
//
// It exposes the process lifecycle (status, start, stop, process details) and
// artifact installation as small JSON endpoints on top of echo, together with
// liveness and Prometheus endpoints.
package control
