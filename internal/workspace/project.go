package workspace

import (
	"strconv"

	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/setops"
)

// Project is a lightweight handle: it holds a non-owning reference back to
// its workspace and its own slug.
type Project struct {
	workspace *Workspace
	slug      string
}

// Slug returns the project's slug.
func (p *Project) Slug() string { return p.slug }

// Name returns the project's name, or nil if never set.
func (p *Project) Name() (record.Record, error) {
	return p.workspace.backend.Latest(collProjectName(p.slug))
}

// SetName always commits a new record.
func (p *Project) SetName(name string) (record.Record, error) {
	return p.workspace.backend.RecordBuilder(collProjectName(p.slug)).Commit(name)
}

// Description returns the project's description, or nil if never set.
func (p *Project) Description() (record.Record, error) {
	return p.workspace.backend.Latest(collProjectDescription(p.slug))
}

// SetDescription always commits a new record.
func (p *Project) SetDescription(desc string) (record.Record, error) {
	return p.workspace.backend.RecordBuilder(collProjectDescription(p.slug)).Commit(desc)
}

// CreateProject creates a sub-project: a new top-level project (slugs are
// globally unique within a workspace) with a parent-pointer record appended
// recording p's slug.
func (p *Project) CreateProject(slug string) (*Project, error) {
	child, err := p.workspace.CreateProject(slug)
	if err != nil {
		return nil, err
	}
	if _, err := p.workspace.backend.RecordBuilder(collProjectParent(slug)).Commit(p.slug); err != nil {
		return nil, err
	}
	return child, nil
}

// Parent returns the most recently recorded parent slug, or "" if p has no
// parent (ok is false in that case).
func (p *Project) Parent() (slug string, ok bool, err error) {
	rec, err := p.workspace.backend.Latest(collProjectParent(p.slug))
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}
	return rec.Message(), true, nil
}

func (p *Project) counter() (uint64, error) {
	rec, err := p.workspace.backend.Latest(collTicketCounter(p.slug))
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	n, err := strconv.ParseUint(rec.Message(), 10, 64)
	if err != nil {
		return 0, record.NewMalformedError("ticket counter for project " + p.slug + " is not a non-negative integer")
	}
	return n, nil
}

// CreateTicket executes the ticket-ID allocation protocol: read the
// counter, increment, commit the new counter value, then add the new id to
// the tickets set. If the counter advanced but the set-add fails because
// the id is somehow already present, that indicates prior corruption and is
// reported as Malformed, not as a normal Exists — reaching that point means
// the counter's monotonicity invariant was already violated upstream.
func (p *Project) CreateTicket() (*Ticket, error) {
	current, err := p.counter()
	if err != nil {
		return nil, err
	}
	newID := current + 1
	if _, err := p.workspace.backend.RecordBuilder(collTicketCounter(p.slug)).Commit(strconv.FormatUint(newID, 10)); err != nil {
		return nil, err
	}
	idStr := strconv.FormatUint(newID, 10)
	_, added, err := setops.Add(p.workspace.backend, collTickets(p.slug), idStr)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, record.NewMalformedError("ticket id " + idStr + " already present in tickets set for project " + p.slug)
	}
	return &Ticket{workspace: p.workspace, project: p.slug, id: newID}, nil
}

// Ticket looks up a ticket by its numeric id within p, re-checking its
// membership in the tickets set.
func (p *Project) Ticket(id uint64) (*Ticket, error) {
	idStr := strconv.FormatUint(id, 10)
	found, err := setops.Find(p.workspace.backend, collTickets(p.slug), idStr)
	if err != nil {
		return nil, err
	}
	if !found.Present {
		return nil, record.NewNotFoundError("ticket", p.slug+"-"+idStr)
	}
	return &Ticket{workspace: p.workspace, project: p.slug, id: id}, nil
}
