// Package resolver turns a distribution channel and a version into a concrete
// artifact.Descriptor.
//
// Each channel is one Resolver implementation. Resolution is a two-hop
// metadata walk because neither vendor maps a version straight to a file:
//
//   - Paper (channel A): version -> latest build -> build details with file name and SHA-256.
//   - Fabric (channel B): game version -> stable loader, then the stable installer -> launcher jar URL.
//
// A Registry dispatches by channel, so adding a distribution means adding one
// Resolver and one registry entry; the download pipeline does not change.
package resolver
