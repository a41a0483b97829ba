package workspace

import (
	"strconv"
	"strings"

	"github.com/minimap-pm/minimap/internal/deps"
	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/setops"
)

// State is a ticket's lifecycle state.
type State int8

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "open"
}

func parseState(s string) (State, error) {
	switch s {
	case "open":
		return Open, nil
	case "closed":
		return Closed, nil
	default:
		return Open, record.NewMalformedError("ticket state " + s + " is neither \"open\" nor \"closed\"")
	}
}

// Ticket is a lightweight handle for a numbered item within a project.
type Ticket struct {
	workspace *Workspace
	project   string
	id        uint64
}

// Slug returns the ticket's "<project>-<id>" slug.
func (t *Ticket) Slug() string {
	return t.project + "-" + strconv.FormatUint(t.id, 10)
}

// ID returns the ticket's numeric id within its project.
func (t *Ticket) ID() uint64 { return t.id }

// ProjectSlug returns the owning project's slug.
func (t *Ticket) ProjectSlug() string { return t.project }

// Title returns the ticket's title, or nil if never set.
func (t *Ticket) Title() (record.Record, error) {
	return t.workspace.backend.Latest(collTicketTitle(t.project, t.id))
}

// SetTitle always commits a new record.
func (t *Ticket) SetTitle(title string) (record.Record, error) {
	return t.workspace.backend.RecordBuilder(collTicketTitle(t.project, t.id)).Commit(title)
}

// AddComment appends a new comment record.
func (t *Ticket) AddComment(message string) (record.Record, error) {
	return t.workspace.backend.RecordBuilder(collTicketComment(t.project, t.id)).Commit(message)
}

// Comments returns the ticket's comments, newest first.
func (t *Ticket) Comments() ([]record.Record, error) {
	it, err := t.workspace.backend.Walk(collTicketComment(t.project, t.id))
	if err != nil {
		return nil, err
	}
	var out []record.Record
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpsertAttachment records a new attachment overlay with name set to
// content.
func (t *Ticket) UpsertAttachment(name string, content []byte) (record.Record, error) {
	return t.workspace.backend.RecordBuilder(collTicketAttachment(t.project, t.id)).
		UpsertAttachment(name, content).Commit("upsert attachment " + name)
}

// RemoveAttachment records a new attachment overlay with name removed.
func (t *Ticket) RemoveAttachment(name string) (record.Record, error) {
	return t.workspace.backend.RecordBuilder(collTicketAttachment(t.project, t.id)).
		RemoveAttachment(name).Commit("remove attachment " + name)
}

// Attachment returns the bytes for name as of the latest attachment record,
// or nil if no such attachment currently exists.
func (t *Ticket) Attachment(name string) ([]byte, error) {
	rec, err := t.workspace.backend.Latest(collTicketAttachment(t.project, t.id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return t.workspace.backend.Attachment(rec, name)
}

// State returns the ticket's lifecycle state and the record that set it, or
// (Open, nil) if the state was never set.
func (t *Ticket) State() (State, record.Record, error) {
	rec, err := t.workspace.backend.Latest(collTicketState(t.project, t.id))
	if err != nil {
		return Open, nil, err
	}
	if rec == nil {
		return Open, nil, nil
	}
	st, err := parseState(rec.Message())
	if err != nil {
		return Open, nil, err
	}
	return st, rec, nil
}

// IsOpen reports whether the ticket is currently Open.
func (t *Ticket) IsOpen() (bool, error) {
	st, _, err := t.State()
	return st == Open, err
}

// IsClosed reports whether the ticket is currently Closed.
func (t *Ticket) IsClosed() (bool, error) {
	st, _, err := t.State()
	return st == Closed, err
}

// SetState commits a new state record.
func (t *Ticket) SetState(st State) (record.Record, error) {
	return t.workspace.backend.RecordBuilder(collTicketState(t.project, t.id)).Commit(st.String())
}

func encodeDependency(origin, endpoint string) string { return origin + "@" + endpoint }

func decodeDependency(msg string) (origin, endpoint string, err error) {
	idx := strings.Index(msg, "@")
	if idx < 0 {
		return "", "", record.NewMalformedError("dependency message " + msg + " has no \"@\" separator")
	}
	return msg[:idx], msg[idx+1:], nil
}

// AddDependency validates origin, then adds "<origin>@<endpoint>" to the
// ticket's dependencies set.
func (t *Ticket) AddDependency(origin, endpoint string) (record.Record, error) {
	if strings.Contains(origin, "@") {
		return nil, record.NewMalformedOriginError(origin)
	}
	rec, _, err := setops.Add(t.workspace.backend, collTicketDependencies(t.project, t.id), encodeDependency(origin, endpoint))
	return rec, err
}

// RemoveDependency is the dual of AddDependency.
func (t *Ticket) RemoveDependency(origin, endpoint string) (record.Record, error) {
	rec, _, err := setops.Del(t.workspace.backend, collTicketDependencies(t.project, t.id), encodeDependency(origin, endpoint))
	return rec, err
}

// Dependency is one decoded present dependency.
type Dependency struct {
	Origin   string
	Endpoint string
}

// Dependencies returns the ticket's present dependencies, decoded.
func (t *Ticket) Dependencies() ([]Dependency, error) {
	recs, err := setops.GetAll(t.workspace.backend, collTicketDependencies(t.project, t.id))
	if err != nil {
		return nil, err
	}
	out := make([]Dependency, 0, len(recs))
	for _, rec := range recs {
		origin, endpoint, err := decodeDependency(rec.Message())
		if err != nil {
			return nil, err
		}
		out = append(out, Dependency{Origin: origin, Endpoint: endpoint})
	}
	return out, nil
}

// ResolvedDependency pairs a dependency with its resolved status, or an
// error if resolution failed for that one dependency.
type ResolvedDependency struct {
	Dependency Dependency
	Status     deps.Status
	Err        error
}

// ResolveDependencies resolves every present dependency: "_" origins are
// resolved locally against the ticket's own workspace; everything else is
// delegated to registry.
func (t *Ticket) ResolveDependencies(registry *deps.Registry) ([]ResolvedDependency, error) {
	dependencies, err := t.Dependencies()
	if err != nil {
		return nil, err
	}
	out := make([]ResolvedDependency, 0, len(dependencies))
	for _, d := range dependencies {
		if d.Origin == "_" {
			other, err := t.workspace.Ticket(d.Endpoint)
			if err != nil {
				out = append(out, ResolvedDependency{Dependency: d, Err: err})
				continue
			}
			st, _, err := other.State()
			if err != nil {
				out = append(out, ResolvedDependency{Dependency: d, Err: err})
				continue
			}
			status := deps.StatusPending
			if st == Closed {
				status = deps.StatusComplete
			}
			out = append(out, ResolvedDependency{Dependency: d, Status: status})
			continue
		}
		status, err := registry.Status(d.Origin, d.Endpoint)
		out = append(out, ResolvedDependency{Dependency: d, Status: status, Err: err})
	}
	return out, nil
}
