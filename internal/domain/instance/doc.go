// Package instance contains core domain types describing the managed server process.
//
// It defines Status (running or stopped), Exit (how the last instance ended) and
// Snapshot (the slot contents at a point in time) with Clone helpers to avoid
// leaking internal references.
package instance
