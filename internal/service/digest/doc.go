// Package digest computes and verifies SHA-256 digests of files on disk.
//
// Files are streamed through the hash in fixed-size chunks so arbitrarily
// large artifacts never have to fit in memory.
package digest
