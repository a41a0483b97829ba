// Package deps implements the pluggable dependency-origin registry
// described by the entity layer: a map from origin slug to an origin
// implementation, pre-populated by its caller with the built-in "minimap"
// origin.
//
// Grounded on the original Rust crate's deps.rs and deps/minimap.rs, and
// structured after steveyegge-beads' internal/resolver/resolver.go
// Requirement/Resolver split (an interface plus one concrete implementation
// registered by the caller that owns the domain objects the origin needs to
// reach, which keeps this package free of any dependency on the workspace
// or backend packages).
package deps

import "github.com/minimap-pm/minimap/internal/record"

// Status is a dependency's resolved state.
type Status int8

const (
	StatusPending Status = iota
	StatusComplete
)

func (s Status) String() string {
	if s == StatusComplete {
		return "complete"
	}
	return "pending"
}

// Origin resolves dependency endpoints registered under its Slug.
type Origin interface {
	Slug() string
	Status(endpoint string) (Status, error)
}

// reservedSlugs can never be registered by a caller: "_" is resolved locally
// by the ticket itself, never by the registry, and "minimap" is reserved
// for the built-in origin.
var reservedSlugs = map[string]bool{"_": true, "minimap": true}

// ValidateOriginSlug reports whether slug may be registered: not "_", not
// "minimap", and containing no "@".
func ValidateOriginSlug(slug string) error {
	if reservedSlugs[slug] {
		return record.NewMalformedOriginError(slug)
	}
	for i := 0; i < len(slug); i++ {
		if slug[i] == '@' {
			return record.NewMalformedOriginError(slug)
		}
	}
	return nil
}

// Registry owns a map from origin slug to origin implementation.
type Registry struct {
	origins map[string]Origin
}

// NewRegistry returns an empty registry. Built-in origins are added via
// RegisterBuiltin by the package that owns the domain types they need
// (internal/workspace, for the "minimap" origin), not by this constructor,
// to keep this package free of a dependency cycle back to workspace/backend.
func NewRegistry() *Registry {
	return &Registry{origins: make(map[string]Origin)}
}

// Register validates slug, then registers origin under it. Re-registering
// an already-registered slug overwrites the prior entry.
func (r *Registry) Register(origin Origin) error {
	if err := ValidateOriginSlug(origin.Slug()); err != nil {
		return err
	}
	r.origins[origin.Slug()] = origin
	return nil
}

// RegisterBuiltin inserts origin under its own slug without validation. It
// exists so a caller that owns a reserved built-in slug (namely "minimap")
// can populate the registry at construction time.
func (r *Registry) RegisterBuiltin(origin Origin) {
	r.origins[origin.Slug()] = origin
}

// Status resolves slug@endpoint. The "_" slug is never looked up here — the
// ticket resolves it locally against its own workspace before ever calling
// into the registry.
func (r *Registry) Status(slug, endpoint string) (Status, error) {
	origin, ok := r.origins[slug]
	if !ok {
		return StatusPending, record.NewUnknownOriginError(slug)
	}
	status, err := origin.Status(endpoint)
	if err != nil {
		return StatusPending, record.NewOriginError(err)
	}
	return status, nil
}
