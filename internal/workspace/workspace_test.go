package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimap-pm/minimap/internal/backend/memorybackend"
	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	return workspace.Open(memorybackend.New("tester", "tester@example.com"))
}

func TestWorkspaceNameRoundTrip(t *testing.T) {
	w := newTestWorkspace(t)
	name, err := w.Name()
	require.NoError(t, err)
	require.Nil(t, name)

	rec1, err := w.SetName("my-workspace")
	require.NoError(t, err)
	require.Equal(t, "my-workspace", rec1.Message())

	rec2, err := w.SetName("my-workspace")
	require.NoError(t, err)
	require.NotEqual(t, rec1.ID(), rec2.ID(), "setting the same name twice still commits a new record")

	name, err = w.Name()
	require.NoError(t, err)
	require.Equal(t, "my-workspace", name.Message())
}

func TestWorkspaceDescriptionRoundTrip(t *testing.T) {
	w := newTestWorkspace(t)
	_, err := w.SetDescription("about this workspace")
	require.NoError(t, err)
	desc, err := w.Description()
	require.NoError(t, err)
	require.Equal(t, "about this workspace", desc.Message())
}

func TestCreateProjectLifecycle(t *testing.T) {
	w := newTestWorkspace(t)

	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	require.Equal(t, "TEST", p.Slug())

	_, err = w.CreateProject("TEST")
	require.Error(t, err)
	var merr *record.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, record.KindExists, merr.Kind)

	_, err = w.DeleteProject("TEST")
	require.NoError(t, err)

	_, err = w.Project("TEST")
	require.Error(t, err)

	// Recreating restores it.
	p2, err := w.CreateProject("TEST")
	require.NoError(t, err)
	require.Equal(t, "TEST", p2.Slug())
}

func TestCreateProjectRejectsMalformedSlug(t *testing.T) {
	w := newTestWorkspace(t)
	for _, bad := range []string{"has/slash", "has space", ""} {
		_, err := w.CreateProject(bad)
		require.Error(t, err)
		var merr *record.Error
		require.ErrorAs(t, err, &merr)
		require.Equal(t, record.KindMalformedProjectSlug, merr.Kind)
	}
}

func TestTicketLookupBySlug(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)
	ticket, err := p.CreateTicket()
	require.NoError(t, err)
	require.Equal(t, "TEST-1", ticket.Slug())

	found, err := w.Ticket("TEST-1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), found.ID())

	_, err = w.Ticket("TEST-99")
	require.Error(t, err)

	_, err = w.Ticket("no-dash-here-but-no-number")
	require.Error(t, err)
}
