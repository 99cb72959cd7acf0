package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	return NewGuard(filepath.Join(t.TempDir(), "uploads"), 50<<20)
}

func TestAcceptAllowedExtensions(t *testing.T) {
	g := newTestGuard(t)

	for _, name := range []string{"a.pdf", "b.PNG", "c.Jpg", "d.jpeg", "e.gif", "f.zip", "g.txt", "h.docx", "i.xlsx", "j.csv"} {
		assert.NoError(t, g.Accept(name, 1024), name)
	}
}

func TestAcceptRejectsDisallowedExtension(t *testing.T) {
	g := newTestGuard(t)

	for _, name := range []string{"run.exe", "script.sh", "page.html", "noext", "double.txt.exe"} {
		err := g.Accept(name, 1024)
		require.Error(t, err, name)
		var rejected *RejectedError
		assert.ErrorAs(t, err, &rejected)
	}
}

func TestAcceptRejectsOversize(t *testing.T) {
	g := NewGuard(t.TempDir(), 10<<20)

	err := g.Accept("big.pdf", 11<<20)
	require.Error(t, err)
	// The rejection reason reports the effective configured limit.
	assert.Contains(t, err.Error(), "10 MB")

	assert.NoError(t, g.Accept("big.pdf", 10<<20))
}

func TestPersistAndOpenRoundTrip(t *testing.T) {
	g := newTestGuard(t)
	content := []byte("protected file body")

	path, err := g.Persist(bytes.NewReader(content), "abc123token.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(g.Root, "abc123token.txt"), path)

	f, size, err := g.Open("abc123token.txt")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(len(content)), size)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestPersistCreatesRoot(t *testing.T) {
	g := newTestGuard(t)

	_, err := os.Stat(g.Root)
	require.True(t, os.IsNotExist(err))

	_, err = g.Persist(bytes.NewReader([]byte("x")), "name.txt")
	require.NoError(t, err)

	_, err = os.Stat(g.Root)
	require.NoError(t, err)
}

func TestPersistRejectsTraversalNames(t *testing.T) {
	g := newTestGuard(t)

	for _, name := range []string{"", "../escape.txt", "a/b.txt", `a\b.txt`, "..", "dir/../x.txt"} {
		_, err := g.Persist(bytes.NewReader([]byte("x")), name)
		assert.Error(t, err, "name %q should be rejected", name)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	g := newTestGuard(t)

	_, err := g.Persist(bytes.NewReader([]byte("x")), "gone.txt")
	require.NoError(t, err)

	require.NoError(t, g.Remove("gone.txt"))
	// Second remove of the same name is not an error.
	require.NoError(t, g.Remove("gone.txt"))
	require.NoError(t, g.Remove("never-existed.txt"))
}
