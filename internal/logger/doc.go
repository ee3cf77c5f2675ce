// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Every component of the keeper takes a context and logs through the logger
// stored in it, so request handlers, the installer and the process supervisor
// all share scoped, structured output without holding a concrete sink.
package logger
