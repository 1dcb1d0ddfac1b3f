package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/edurag/internal/core/domain"
)

func TestIndexCmd_HasWatchFlag(t *testing.T) {
	flag := indexCmd.Flags().Lookup("watch")
	require.NotNil(t, flag, "watch flag should exist")
	assert.Equal(t, "w", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestIndexCmd_Indexes(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("index")

	require.NoError(t, err)
	assert.Equal(t, "Indexed 12 chunks.\n", out)
	assert.Equal(t, 1, ts.index.calls)
}

func TestIndexCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.index.err = domain.ErrNoNotes

	_, err := execute("index")

	assert.ErrorIs(t, err, domain.ErrNoNotes)
}

func TestIndexCmd_Watch(t *testing.T) {
	t.Run("rebuilds on each change", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.index.chunks = []int{12, 14, 15}
		ts.watcher.changes = 2

		out, err := execute("index", "--watch")

		require.NoError(t, err)
		assert.Equal(t, 3, ts.index.calls)
		assert.Contains(t, out, "Indexed 12 chunks.")
		assert.Contains(t, out, "Watching for note changes.")
		assert.Contains(t, out, "Reindexed 14 chunks.")
		assert.Contains(t, out, "Reindexed 15 chunks.")
	})

	t.Run("watcher failure", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.watcher.err = errors.New("too many open files")

		_, err := execute("index", "--watch")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "watching notes")
	})

	t.Run("no watcher", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		noteWatcher = nil

		_, err := execute("index", "--watch")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "note watcher not configured")
		assert.Zero(t, ts.index.calls)
	})
}
