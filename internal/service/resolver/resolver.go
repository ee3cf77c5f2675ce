package resolver

import (
	"context"
	"fmt"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
)

// Resolver maps a version of one distribution to a downloadable artifact.
type Resolver interface {
	// Channel returns the distribution this resolver serves.
	Channel() artifact.Channel
	// Resolve walks the vendor metadata for version.
	Resolve(ctx context.Context, version string) (*artifact.Descriptor, error)
}

// Registry holds one resolver per channel.
type Registry struct {
	// resolvers is keyed by channel and never mutated after construction.
	resolvers map[artifact.Channel]Resolver
}

// NewRegistry indexes the provided resolvers by their channel.
// A later resolver replaces an earlier one for the same channel.
func NewRegistry(resolvers ...Resolver) *Registry {
	registry := &Registry{
		resolvers: make(map[artifact.Channel]Resolver, len(resolvers)),
	}

	for _, r := range resolvers {
		registry.resolvers[r.Channel()] = r
	}

	return registry
}

// Lookup returns the resolver of channel.
//
//nolint:ireturn // Dispatch by channel is the whole point of the registry.
func (r *Registry) Lookup(channel artifact.Channel) (Resolver, error) {
	resolver, ok := r.resolvers[channel]
	if !ok {
		return nil, fmt.Errorf("%q: %w", channel, artifact.ErrUnknownChannel)
	}

	return resolver, nil
}
