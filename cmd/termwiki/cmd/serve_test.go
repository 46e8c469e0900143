package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/lock"
)

func TestServe_StopsOnCancel(t *testing.T) {
	// Given: a project served over HTTP on an ephemeral port
	root := newDocsProject(t)
	projectDir = root
	t.Cleanup(func() { projectDir = "" })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runServe(ctx, serveOptions{addr: "127.0.0.1:0"})
	}()

	// When: the context ends
	time.Sleep(300 * time.Millisecond)
	cancel()

	// Then: the server shuts down cleanly and releases the docs lock
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.NoFileExists(t, lock.New(root).Path())
}

func TestServe_RefusesSecondServer(t *testing.T) {
	// Given: another server already holds the docs directory
	root := newDocsProject(t)
	projectDir = root
	t.Cleanup(func() { projectDir = "" })

	held := lock.New(root)
	require.NoError(t, held.Acquire())
	defer held.Release()

	// When: serving the same directory
	err := runServe(context.Background(), serveOptions{addr: "127.0.0.1:0", noWatch: true})

	// Then: it is rejected
	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeAlreadyServing, wikierrors.GetCode(err))
}

func TestServe_MissingDocsDir(t *testing.T) {
	isolate(t)
	projectDir = t.TempDir()
	t.Cleanup(func() { projectDir = "" })
	t.Setenv("TERMWIKI_DOCS_DIR", "does-not-exist")

	err := runServe(context.Background(), serveOptions{addr: "127.0.0.1:0"})

	require.Error(t, err)
	assert.Equal(t, wikierrors.ErrCodeFileNotFound, wikierrors.GetCode(err))
}
