package access

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentScope_ChecksBeforeInitDeny(t *testing.T) {
	s := NewAssignmentScope(StaticLoader("ENG-1"))
	assert.False(t, s.IsEngagementAllowed("ENG-1"))
	assert.False(t, s.HasAssignments())

	require.NoError(t, s.EnsureInitialized(context.Background()))
	assert.True(t, s.IsEngagementAllowed("ENG-1"))
	assert.True(t, s.IsEngagementAllowed(" eng-1 "))
	assert.False(t, s.IsEngagementAllowed("ENG-2"))
	assert.True(t, s.HasAssignments())
}

func TestAssignmentScope_NoAssignments(t *testing.T) {
	s := NewAssignmentScope(StaticLoader())
	require.NoError(t, s.EnsureInitialized(context.Background()))
	assert.False(t, s.HasAssignments())
	assert.Empty(t, s.EngagementIDs())
	assert.False(t, s.IsEngagementAllowed("ENG-1"))
}

func TestAssignmentScope_CachesSuccessRetriesFailure(t *testing.T) {
	calls := 0
	s := NewAssignmentScope(LoaderFunc(func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("directory unavailable")
		}
		return []string{"ENG-2", "ENG-1", ""}, nil
	}))

	err := s.EnsureInitialized(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory unavailable")
	assert.False(t, s.HasAssignments())

	require.NoError(t, s.EnsureInitialized(context.Background()))
	require.NoError(t, s.EnsureInitialized(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"ENG-1", "ENG-2"}, s.EngagementIDs())
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assignments:\n  alice: [ENG-1, ENG-2]\n  bob:\n    - ENG-3\n"), 0o644))

	ids, err := FileLoader(path, "alice").LoadEngagementIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ENG-1", "ENG-2"}, ids)

	ids, err = FileLoader(path, "carol").LoadEngagementIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileLoader_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assignment:\n  alice: [ENG-1]\n"), 0o644))

	_, err := FileLoader(path, "alice").LoadEngagementIDs(context.Background())
	assert.Error(t, err)
}

func TestFileLoader_MissingFile(t *testing.T) {
	s := NewAssignmentScope(FileLoader(filepath.Join(t.TempDir(), "nope.yaml"), "alice"))
	assert.Error(t, s.EnsureInitialized(context.Background()))
}
