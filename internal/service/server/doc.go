// Package server runs the server-keeper controller.
//
// Run loads settings, wires the process controller, the installer and both
// transports, serves until the context is canceled and then stops the managed
// process before returning.
package server
