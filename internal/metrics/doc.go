// Package metrics defines the Prometheus collectors of the keeper and the
// echo middleware that instruments the control API.
package metrics
