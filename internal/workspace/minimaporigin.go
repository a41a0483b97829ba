package workspace

import (
	"strings"

	"github.com/minimap-pm/minimap/internal/backend/gitbackend"
	"github.com/minimap-pm/minimap/internal/deps"
	"github.com/minimap-pm/minimap/internal/record"
)

// minimapOrigin is the built-in dependency origin: it parses its endpoint
// as "<remote-url>@<ticket-slug>", opens a Git-backed workspace against
// that remote, looks up the ticket, and maps its state to a dependency
// status.
//
// Grounded on the original Rust crate's deps/minimap.rs.
type minimapOrigin struct{}

func (minimapOrigin) Slug() string { return "minimap" }

func (minimapOrigin) Status(endpoint string) (deps.Status, error) {
	idx := strings.Index(endpoint, "@")
	if idx < 0 {
		return deps.StatusPending, record.NewMalformedEndpointError(endpoint)
	}
	remote, ticketSlug := endpoint[:idx], endpoint[idx+1:]

	b, err := gitbackend.Open(remote)
	if err != nil {
		return deps.StatusPending, err
	}
	other := Open(b)
	ticket, err := other.Ticket(ticketSlug)
	if err != nil {
		return deps.StatusPending, err
	}
	st, _, err := ticket.State()
	if err != nil {
		return deps.StatusPending, err
	}
	if st == Closed {
		return deps.StatusComplete, nil
	}
	return deps.StatusPending, nil
}

func newRegistryWithBuiltins() *deps.Registry {
	r := deps.NewRegistry()
	r.RegisterBuiltin(minimapOrigin{})
	return r
}
