package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimap-pm/minimap/internal/workspace"
)

func TestCreateTicketSequentialIDs(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)

	t1, err := p.CreateTicket()
	require.NoError(t, err)
	t2, err := p.CreateTicket()
	require.NoError(t, err)
	t3, err := p.CreateTicket()
	require.NoError(t, err)

	require.Equal(t, "TEST-1", t1.Slug())
	require.Equal(t, "TEST-2", t2.Slug())
	require.Equal(t, "TEST-3", t3.Slug())

	_, err = t2.SetTitle("hello")
	require.NoError(t, err)

	title1, err := t1.Title()
	require.NoError(t, err)
	require.Nil(t, title1, "setting TEST-2's title must not alter TEST-1's")
}

func TestSubProjectParent(t *testing.T) {
	w := newTestWorkspace(t)
	parent, err := w.CreateProject("PARENT")
	require.NoError(t, err)

	child, err := parent.CreateProject("CHILD")
	require.NoError(t, err)

	slug, ok, err := child.Parent()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "PARENT", slug)

	_, ok, err = parent.Parent()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProjectNameAndDescription(t *testing.T) {
	w := newTestWorkspace(t)
	p, err := w.CreateProject("TEST")
	require.NoError(t, err)

	_, err = p.SetName("Test Project")
	require.NoError(t, err)
	_, err = p.SetDescription("a project for testing")
	require.NoError(t, err)

	name, err := p.Name()
	require.NoError(t, err)
	require.Equal(t, "Test Project", name.Message())

	desc, err := p.Description()
	require.NoError(t, err)
	require.Equal(t, "a project for testing", desc.Message())
}
