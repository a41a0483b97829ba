package gitbackend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// newTestRemote creates a bare repository under a fresh temp directory and
// returns a file:// URL to it, grounded on the file://-bare-repo harness
// pattern used by the dolt storage backend's own Git remote tests.
func newTestRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bareDir := filepath.Join(dir, "remote.git")
	_, err := git.PlainInit(bareDir, true)
	require.NoError(t, err)
	return "file://" + bareDir
}

// openTestBackend opens a Git backend against a fresh bare remote. Each
// remote URL is unique to its test (a fresh t.TempDir() bare repo path), so
// LocalCloneDir's hash keeps every test's clone cache separate even though
// they share the real system temp directory.
func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	remote := newTestRemote(t)
	b, err := Open(remote, WithSignature("Test User", "test@example.com"))
	require.NoError(t, err)
	return b
}

func TestOpenBootstrapsSentinels(t *testing.T) {
	b := openTestBackend(t)
	require.NotEqual(t, b.sentinelAdd.String(), b.sentinelDel.String())
}

func TestCommitAndWalk(t *testing.T) {
	b := openTestBackend(t)
	const coll = "meta/workspace/name"

	rec1, err := b.RecordBuilder(coll).Commit("alpha")
	require.NoError(t, err)
	rec2, err := b.RecordBuilder(coll).Commit("beta")
	require.NoError(t, err)
	require.Equal(t, rec1.ID(), rec2.ParentID())

	latest, err := b.Latest(coll)
	require.NoError(t, err)
	require.Equal(t, "beta", latest.Message())

	it, err := b.Walk(coll)
	require.NoError(t, err)
	var messages []string
	for {
		rec, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		messages = append(messages, rec.Message())
	}
	require.Equal(t, []string{"beta", "alpha"}, messages)
}

func TestEmptyCollectionWalkAndLatest(t *testing.T) {
	b := openTestBackend(t)
	latest, err := b.Latest("never/touched")
	require.NoError(t, err)
	require.Nil(t, latest)

	it, err := b.Walk("never/touched")
	require.NoError(t, err)
	_, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetAddDelAndWalkSet(t *testing.T) {
	b := openTestBackend(t)
	const coll = "meta/projects"

	_, err := b.SetAddUnchecked(coll, "TEST")
	require.NoError(t, err)
	_, err = b.SetAddUnchecked(coll, "OTHER")
	require.NoError(t, err)
	_, err = b.SetDelUnchecked(coll, "TEST")
	require.NoError(t, err)

	it, err := b.WalkSet(coll)
	require.NoError(t, err)
	type seen struct {
		msg string
		add bool
	}
	var got []seen
	for {
		entry, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, seen{entry.Record.Message(), entry.Op.String() == "add"})
	}
	require.Equal(t, []seen{
		{"TEST", false},
		{"OTHER", true},
		{"TEST", true},
	}, got)
}

func TestAttachmentUpsertAndRemove(t *testing.T) {
	b := openTestBackend(t)
	const coll = "project/TEST/ticket/1/attachment"

	rec1, err := b.RecordBuilder(coll).UpsertAttachment("file", []byte("test")).Commit("upsert file")
	require.NoError(t, err)
	content, err := b.Attachment(rec1, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("test"), content)

	rec2, err := b.RecordBuilder(coll).RemoveAttachment("file").Commit("remove file")
	require.NoError(t, err)
	content2, err := b.Attachment(rec2, "file")
	require.NoError(t, err)
	require.Nil(t, content2)

	// The earlier record still carries the bytes.
	content1Again, err := b.Attachment(rec1, "file")
	require.NoError(t, err)
	require.Equal(t, []byte("test"), content1Again)
}

func TestGetRecordRoundTrip(t *testing.T) {
	b := openTestBackend(t)
	rec, err := b.RecordBuilder("meta/workspace/name").Commit("hello")
	require.NoError(t, err)

	fetched, err := b.GetRecord(rec.ID())
	require.NoError(t, err)
	require.Equal(t, rec.ID(), fetched.ID())
	require.Equal(t, "hello", fetched.Message())
	require.Equal(t, rec.Author(), fetched.Author())
	require.Equal(t, rec.Email(), fetched.Email())
}

func TestLocalCloneDirIsStableAndHashed(t *testing.T) {
	d1 := LocalCloneDir("https://example.com/a.git")
	d2 := LocalCloneDir("https://example.com/a.git")
	d3 := LocalCloneDir("https://example.com/b.git")
	require.Equal(t, d1, d2)
	require.NotEqual(t, d1, d3)
	require.True(t, filepath.IsAbs(d1))
	require.Equal(t, filepath.Join(os.TempDir(), "minimap"), filepath.Dir(d1))
}
