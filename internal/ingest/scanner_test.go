package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt(".PDF"))
	assert.True(t, AllowedExt("txt"))
	assert.True(t, AllowedExt(".heic"))
	assert.False(t, AllowedExt(".docx"))
	assert.False(t, AllowedExt(""))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/tmp/in/.DS_Store"))
	assert.True(t, IsHidden(".git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/tmp/in/invoice.pdf"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Invoice.TXT")
	writeFile(t, path, "hello")

	doc, err := NewScanner(0, true, nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Invoice.TXT", doc.Filename)
	assert.Equal(t, "txt", doc.Ext)
	assert.Equal(t, int64(5), doc.Size)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", doc.SHA256)
	assert.Equal(t, []byte("hello"), doc.Data)

	input := doc.Input("acme")
	assert.Equal(t, "acme", input.VendorKey)
	assert.Equal(t, int64(5), input.FileSize)
}

func TestLoadFileRejects(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "notes.docx")
		writeFile(t, path, "x")
		_, err := NewScanner(0, true, nil).LoadFile(path)
		assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.txt")
		writeFile(t, path, "0123456789")
		_, err := NewScanner(4, true, nil).LoadFile(path)
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INPUT_TOO_LARGE", appErr.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewScanner(0, true, nil).LoadFile(filepath.Join(dir, "gone.pdf"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "Invoice A")
	writeFile(t, filepath.Join(root, "nested", "b.txt"), "Invoice B")
	writeFile(t, filepath.Join(root, "nested", "copy-of-a.txt"), "Invoice A")
	writeFile(t, filepath.Join(root, "readme.md"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "hidden")
	writeFile(t, filepath.Join(root, "big.txt"), "this one is far too large")

	docs, stats, err := NewScanner(16, true, nil).ScanDirectory(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)

	byName := map[string]Document{}
	for _, d := range docs {
		byName[d.Filename] = d
	}
	assert.NotContains(t, byName, "c.txt")
	assert.NotContains(t, byName, "readme.md")
	assert.NotEmpty(t, byName["big.txt"].Err)

	// WalkDir visits a.txt before nested/, so the copy is the duplicate.
	assert.False(t, byName["a.txt"].Deduplicated)
	assert.True(t, byName["copy-of-a.txt"].Deduplicated)
	assert.Nil(t, byName["copy-of-a.txt"].Data)
	assert.Equal(t, byName["a.txt"].SHA256, byName["copy-of-a.txt"].SHA256)
}

func TestScanDirectoryHiddenIncluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "hidden")

	docs, stats, err := NewScanner(0, false, nil).ScanDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	require.Len(t, docs, 1)
	assert.Equal(t, "c.txt", docs[0].Filename)
}

func TestScanDirectoryErrors(t *testing.T) {
	_, _, err := NewScanner(0, true, nil).ScanDirectory(context.Background(), "  ")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	_, _, err = NewScanner(0, true, nil).ScanDirectory(ctx, root)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.txt")
	writeFile(t, existing, "old")
	writeFile(t, filepath.Join(root, "skip.md"), "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		SkipHidden:  true,
	}, nil)
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(5 * time.Second):
		t.Fatal("initial scan did not emit the existing file")
	}

	created := filepath.Join(root, "new.pdf")
	writeFile(t, created, "%PDF-1.4")
	select {
	case p := <-events:
		assert.Equal(t, created, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not emit the new file")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStartWatcherNoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
