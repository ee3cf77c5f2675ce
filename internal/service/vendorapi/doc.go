// Package vendorapi is the outbound HTTP client shared by every resolver and
// the download pipeline.
//
// It is safe for concurrent use: the underlying http.Client and rate limiter
// carry no per-request state. Transport failures and non-success statuses are
// reported as artifact.ErrNetwork, undecodable bodies as
// artifact.ErrMalformedMetadata.
package vendorapi
