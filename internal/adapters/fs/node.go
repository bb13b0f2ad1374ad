package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"zr/internal/core/ports"
)

// ResolverNodeID is the unique identifier for the glob resolver Graft node.
const ResolverNodeID graft.ID = "adapter.fs_resolver"

// HasherNodeID is the unique identifier for the fingerprinter Graft node.
const HasherNodeID graft.ID = "adapter.fs_hasher"

// VerifierNodeID is the unique identifier for the output verifier Graft node.
const VerifierNodeID graft.ID = "adapter.fs_verifier"

func init() {
	graft.Register(graft.Node[ports.InputResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InputResolver, error) {
			return NewResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ResolverNodeID},
		Run: func(ctx context.Context) (ports.Hasher, error) {
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			r, ok := resolver.(*Resolver)
			if !ok {
				return NewHasher(NewResolver()), nil
			}
			return NewHasher(r), nil
		},
	})

	graft.Register(graft.Node[ports.Verifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Verifier, error) {
			return NewVerifier(), nil
		},
	})
}
