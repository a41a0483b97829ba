package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimap-pm/minimap/internal/deps"
	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/workspace"
)

func TestTicketCommentsNewestFirst(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)

	_, err = ticket.AddComment("a")
	require.NoError(t, err)
	_, err = ticket.AddComment("b")
	require.NoError(t, err)

	comments, err := ticket.Comments()
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "b", comments[0].Message())
	require.Equal(t, "a", comments[1].Message())
}

func TestTicketAttachmentUpsertAndRemove(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)

	_, err = ticket.UpsertAttachment("file", []byte{0x74, 0x65, 0x73, 0x74})
	require.NoError(t, err)
	content, err := ticket.Attachment("file")
	require.NoError(t, err)
	require.Equal(t, []byte{0x74, 0x65, 0x73, 0x74}, content)

	_, err = ticket.RemoveAttachment("file")
	require.NoError(t, err)
	content, err = ticket.Attachment("file")
	require.NoError(t, err)
	require.Nil(t, content)
}

func TestTicketStateDefaultsToOpen(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)

	st, rec, err := ticket.State()
	require.NoError(t, err)
	require.Equal(t, workspace.Open, st)
	require.Nil(t, rec)
	isOpen, err := ticket.IsOpen()
	require.NoError(t, err)
	require.True(t, isOpen)

	_, err = ticket.SetState(workspace.Closed)
	require.NoError(t, err)
	isClosed, err := ticket.IsClosed()
	require.NoError(t, err)
	require.True(t, isClosed)
}

func TestTicketDependenciesLocalResolution(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	t1, err := p.CreateTicket()
	require.NoError(t, err)
	t2, err := p.CreateTicket()
	require.NoError(t, err)

	_, err = t1.AddDependency("_", t2.Slug())
	require.NoError(t, err)

	dependencies, err := t1.Dependencies()
	require.NoError(t, err)
	require.Len(t, dependencies, 1)
	require.Equal(t, "_", dependencies[0].Origin)
	require.Equal(t, t2.Slug(), dependencies[0].Endpoint)

	resolved, err := t1.ResolveDependencies(w.Registry())
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NoError(t, resolved[0].Err)
	require.Equal(t, deps.StatusPending, resolved[0].Status)

	_, err = t2.SetState(workspace.Closed)
	require.NoError(t, err)

	resolved, err = t1.ResolveDependencies(w.Registry())
	require.NoError(t, err)
	require.Equal(t, deps.StatusComplete, resolved[0].Status)
}

func TestAddDependencyRejectsMalformedOrigin(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)

	_, err = ticket.AddDependency("bad@origin", "x")
	require.Error(t, err)
	var merr *record.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, record.KindMalformedOrigin, merr.Kind)
}

func TestResolveDependenciesUnknownOrigin(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)

	_, err = ticket.AddDependency("github", "owner/repo#1")
	require.NoError(t, err)

	resolved, err := ticket.ResolveDependencies(w.Registry())
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Error(t, resolved[0].Err)
	var merr *record.Error
	require.ErrorAs(t, resolved[0].Err, &merr)
	require.Equal(t, record.KindUnknownOrigin, merr.Kind)
}
