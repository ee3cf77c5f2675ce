// Package installer downloads resolved artifacts and installs them into the
// server work directory.
//
// The Pipeline streams the artifact from the vendor, swaps it into place with
// go-update and, when the vendor published a digest, verifies the stored file.
// A file that fails verification is removed before the error is returned, so
// a corrupt or tampered artifact never stays at the install location.
//
// The Installer wraps resolution and download into one call used by the HTTP
// API and the CLI. Every failure is returned once as *artifact.InstallError;
// nothing is retried.
package installer
