package control

import "time"

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status string `json:"status"`
}

// messageResponse is returned by GET /start and GET /stop.
type messageResponse struct {
	Message string `json:"message"`
}

// installRequest is the body of POST /install.
type installRequest struct {
	DistributionChannel string `json:"distributionChannel"`
	Version             string `json:"version"`
}

// installResponse is returned by POST /install. Hash is null for unverified installs.
type installResponse struct {
	Hash    *string `json:"hash"`
	Message string  `json:"message"`
}

// exitResponse describes the previous process.
type exitResponse struct {
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
	Code  int       `json:"code"`
}

// processResponse is returned by GET /process.
type processResponse struct {
	StartedAt  *time.Time    `json:"started_at"`
	LastExit   *exitResponse `json:"last_exit"`
	Executable string        `json:"executable,omitempty"`
	Uptime     string        `json:"uptime"`
	PID        int           `json:"pid"`
	Generation uint64        `json:"generation"`
	Running    bool          `json:"running"`
}
