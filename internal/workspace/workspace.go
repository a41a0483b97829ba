// Package workspace implements the entity layer: Workspace, Project, and
// Ticket, built purely on top of internal/backend and internal/setops.
//
// Grounded on the original Rust crate's lib.rs (Workspace/Project/Ticket)
// and remote/git.rs's cross-workspace dependency test, generalized to the
// Backend/Remote split this module uses.
package workspace

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/deps"
	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/setops"
)

const (
	collWorkspaceName        = "meta/workspace/name"
	collWorkspaceDescription = "meta/workspace/description"
	collProjects             = "meta/projects"
)

func collProjectName(slug string) string        { return "meta/project/" + slug + "/name" }
func collProjectDescription(slug string) string { return "meta/project/" + slug + "/description" }
func collTicketCounter(slug string) string       { return "meta/project/" + slug + "/ticket_counter" }
func collProjectParent(slug string) string       { return "meta/project/" + slug + "/parent" }
func collTickets(slug string) string             { return "project/" + slug + "/tickets" }
func collTicketTitle(project string, id uint64) string {
	return fmt.Sprintf("project/%s/ticket/%d/title", project, id)
}
func collTicketComment(project string, id uint64) string {
	return fmt.Sprintf("project/%s/ticket/%d/comment", project, id)
}
func collTicketAttachment(project string, id uint64) string {
	return fmt.Sprintf("project/%s/ticket/%d/attachment", project, id)
}
func collTicketState(project string, id uint64) string {
	return fmt.Sprintf("project/%s/ticket/%d/state", project, id)
}
func collTicketDependencies(project string, id uint64) string {
	return fmt.Sprintf("project/%s/ticket/%d/dependencies", project, id)
}

// Workspace is the root entity: one per opened backend.
type Workspace struct {
	backend  backend.Backend
	registry *deps.Registry
}

// Open wraps b as a Workspace, pre-populating its dependency registry with
// the built-in "minimap" origin.
func Open(b backend.Backend) *Workspace {
	return &Workspace{backend: b, registry: newRegistryWithBuiltins()}
}

// Backend exposes the underlying backend the workspace was opened on.
func (w *Workspace) Backend() backend.Backend { return w.backend }

// Registry returns the workspace's dependency origin registry.
func (w *Workspace) Registry() *deps.Registry { return w.registry }

// Name returns the workspace's name, or nil if never set.
func (w *Workspace) Name() (record.Record, error) {
	return w.backend.Latest(collWorkspaceName)
}

// SetName always commits a new record, even with an identical message.
func (w *Workspace) SetName(name string) (record.Record, error) {
	return w.backend.RecordBuilder(collWorkspaceName).Commit(name)
}

// Description returns the workspace's description, or nil if never set.
func (w *Workspace) Description() (record.Record, error) {
	return w.backend.Latest(collWorkspaceDescription)
}

// SetDescription always commits a new record, even with an identical
// message.
func (w *Workspace) SetDescription(desc string) (record.Record, error) {
	return w.backend.RecordBuilder(collWorkspaceDescription).Commit(desc)
}

// ValidateProjectSlug reports whether slug may be used as a project slug:
// non-empty, no "/" and no whitespace.
func ValidateProjectSlug(slug string) error {
	if slug == "" || strings.Contains(slug, "/") || strings.IndexFunc(slug, unicode.IsSpace) >= 0 {
		return record.NewMalformedProjectSlugError(slug)
	}
	return nil
}

// Project returns a handle for slug if it is currently a member of the
// workspace's projects set.
func (w *Workspace) Project(slug string) (*Project, error) {
	found, err := setops.Find(w.backend, collProjects, slug)
	if err != nil {
		return nil, err
	}
	if !found.Present {
		return nil, record.NewNotFoundError("project", slug)
	}
	return &Project{workspace: w, slug: slug}, nil
}

// CreateProject validates slug, then adds it to the projects set. On
// success it returns a fresh handle; if the slug is already present, it
// returns an Exists error carrying the entity kind "project" and the slug.
// The existing set record itself is not returned.
func (w *Workspace) CreateProject(slug string) (*Project, error) {
	if err := ValidateProjectSlug(slug); err != nil {
		return nil, err
	}
	_, added, err := setops.Add(w.backend, collProjects, slug)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, record.NewExistsError("project", slug)
	}
	return &Project{workspace: w, slug: slug}, nil
}

// DeleteProject removes slug from the projects set. Recreating it later
// restores all of its ticket data, since nothing is actually destroyed.
func (w *Workspace) DeleteProject(slug string) (record.Record, error) {
	rec, _, err := setops.Del(w.backend, collProjects, slug)
	return rec, err
}

// Ticket splits slug at the last '-' into a project slug and a decimal
// ticket id, then looks the ticket up via its project.
func (w *Workspace) Ticket(slug string) (*Ticket, error) {
	idx := strings.LastIndex(slug, "-")
	if idx < 0 || idx == len(slug)-1 {
		return nil, record.NewMalformedError("ticket slug " + slug + " has no \"-<id>\" suffix")
	}
	projectSlug, idPart := slug[:idx], slug[idx+1:]
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil, record.NewMalformedError("ticket slug " + slug + " has non-numeric id")
	}
	proj, err := w.Project(projectSlug)
	if err != nil {
		return nil, err
	}
	return proj.Ticket(id)
}
