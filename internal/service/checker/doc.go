// Package checker implements the health probe command.
//
// It connects to the gRPC health endpoint of a running controller and reports
// whether the controller or the managed process is serving, either once or
// continuously.
package checker
