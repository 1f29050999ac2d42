package source

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirReadText(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "base.txt", "hello=Hi there\n")

	d := NewDir(dir, "", nil)
	text, err := d.ReadText(ctx, "base.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello=Hi there\n", text)
	assert.True(t, d.Exists("base.txt"))
	assert.False(t, d.Exists("missing.txt"))
}

func TestDirReadTextNotFound(t *testing.T) {
	d := NewDir(t.TempDir(), "", nil)
	_, err := d.ReadText(context.Background(), "nope.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirRejectsEscape(t *testing.T) {
	root := t.TempDir()
	inner := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	writeFile(t, root, "secret.txt", "x")

	d := NewDir(inner, "", nil)
	_, err := d.ReadText(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirDecryptsEncryptedFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payload, err := Encrypt("hello=Hi there", "hunter2")
	require.NoError(t, err)
	writeFile(t, dir, "base.txt", payload+"\n")

	text, err := NewDir(dir, "hunter2", nil).ReadText(ctx, "base.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello=Hi there", text)

	_, err = NewDir(dir, "wrong", nil).ReadText(ctx, "base.txt")
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = NewDir(dir, "", nil).ReadText(ctx, "base.txt")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptRejectsMalformed(t *testing.T) {
	for _, payload := range []string{
		"v1:only:three",
		"v2:a:b:c",
		"v1:!!!:b:c",
	} {
		_, err := Decrypt(payload, "pw")
		assert.ErrorIs(t, err, ErrDecryption, payload)
	}
}

func TestEncryptProducesFreshSalt(t *testing.T) {
	a, err := Encrypt("same", "pw")
	require.NoError(t, err)
	b, err := Encrypt("same", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, IsEncrypted(a))

	_, err = Encrypt("", "pw")
	assert.Error(t, err)
}

func TestMapReader(t *testing.T) {
	m := Map{"a.txt": "x"}
	got, err := m.ReadText(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
	_, err = m.ReadText(context.Background(), "b.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWatcherReportsSettledChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var mu sync.Mutex
	var got []string
	w, err := NewWatcher(dir, 50*time.Millisecond, func(_ context.Context, names []string) {
		mu.Lock()
		got = append(got, names...)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeFile(t, dir, "base.txt", "hello=Hi")
	writeFile(t, dir, "notes.md", "ignored")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 20*time.Millisecond)

	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, "base.txt")
	assert.NotContains(t, got, "notes.md")
	assert.GreaterOrEqual(t, w.Changes(), 1)
}
