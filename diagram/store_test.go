package diagram

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWorkspace(t *testing.T) Workspace {
	t.Helper()
	e := newTestEngine(t, 2)
	require.True(t, e.ResizeSliceCount(1, 4))
	require.True(t, e.SetSliceProgress(2, 1, 3, 5))
	require.True(t, e.DescribeSlice(1, 0, 0, "first"))
	require.True(t, e.RenameIndicator(2, "Second"))
	return e.Snapshot()
}

// ---------------------------------------------------------------------------
// FileStore
// ---------------------------------------------------------------------------

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "ws.json")
	store := NewFileStore(path)
	ws := sampleWorkspace(t)

	require.NoError(t, store.Save(ctx, ws))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(ws, loaded); diff != "" {
		t.Errorf("workspace changed across save/load (-want +got):\n%s", diff)
	}
	assert.Equal(t, "file:"+path, store.Name())
}

func TestFileStore_Missing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nothing.json"))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestDecodeWorkspace_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"indicators": [`},
		{"progress out of range", `{"globalConfig":{"groups":[]},"indicators":[{"id":1,"groups":[{"sliceCount":1,"slices":[{"progress":9}]}]}]}`},
		{"slice count mismatch", `{"indicators":[{"id":1,"groups":[{"sliceCount":2,"slices":[{"progress":0}]}]}]}`},
		{"duplicate ids", `{"indicators":[{"id":1,"groups":[]},{"id":1,"groups":[]}]}`},
		{"bad template", `{"globalConfig":{"groups":[{"sliceCount":3,"slices":[]}]}}`},
		{"group count differs from template", `{"globalConfig":{"groups":[{"sliceCount":1,"slices":[{}]}]},"indicators":[{"id":1,"groups":[]}]}`},
		{"slice count differs from template", `{"globalConfig":{"groups":[{"sliceCount":1,"slices":[{}]}]},"indicators":[{"id":1,"groups":[{"sliceCount":2,"slices":[{},{}]}]}]}`},
		{"indicators disagree", `{"indicators":[{"id":1,"groups":[{"sliceCount":1,"slices":[{}]}]},{"id":2,"groups":[]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWorkspace([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidWorkspace)
		})
	}
}

func TestDecodeWorkspace_Normalizes(t *testing.T) {
	data := `{
		"globalConfig": {"groups": [{"label": "A", "sliceCount": 1, "slices": [{"label": "x", "progress": 0}]}]},
		"indicators": [
			{"id": 4, "groups": [{"sliceCount": 1, "slices": [{"progress": 2}]}]},
			{"id": 2, "groups": [{"sliceCount": 1, "slices": [{"progress": 0}]}]}
		]
	}`
	ws, err := DecodeWorkspace([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 5, ws.NextID)
	assert.Equal(t, 1, ws.Template.ThemeCount)
	assert.Equal(t, 4, ws.ActiveIndicator)
}

func TestDecodeWorkspace_RebuildsMissingTemplate(t *testing.T) {
	data := `{
		"globalConfig": {"groups": []},
		"indicators": [{"id": 1, "groups": [
			{"label": "Craft", "color": "#F59E0B", "sliceCount": 2, "slices": [
				{"label": "a", "color": "#F59E0B", "progress": 3, "description": "mine"},
				{"label": "b", "color": "#F59E0B", "progress": 0}
			]}
		]}]
	}`
	ws, err := DecodeWorkspace([]byte(data))
	require.NoError(t, err)
	require.Len(t, ws.Template.Groups, 1)
	assert.Equal(t, 1, ws.Template.ThemeCount)
	tg := ws.Template.Groups[0]
	assert.Equal(t, "Craft", tg.Label)
	assert.Equal(t, "b", tg.Slices[1].Label)
	assert.Zero(t, tg.Slices[0].Progress)
	assert.Empty(t, tg.Slices[0].Description)
	assert.Equal(t, 3, ws.Indicators[0].Groups[0].Slices[0].Progress)

	e := NewEngine(*ws, DefaultGroupDefaults())
	assert.True(t, e.RenameGroup(0, "Skill"))
	assert.True(t, e.ResizeSliceCount(0, 3))
	ind, _ := e.Active()
	assert.Equal(t, "Skill", ind.Groups[0].Label)
	assert.Len(t, ind.Groups[0].Slices, 3)
	assert.Equal(t, 3, ind.Groups[0].Slices[0].Progress)
}

// ---------------------------------------------------------------------------
// SQLiteStore
// ---------------------------------------------------------------------------

func newTestSQLiteStore(t *testing.T, userID string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "cornerstones.db"), userID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "")
	ws := sampleWorkspace(t)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoWorkspace)

	require.NoError(t, store.Save(ctx, ws))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(ws, loaded); diff != "" {
		t.Errorf("workspace changed across save/load (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_UpsertKeepsOneRowPerUser(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t, "alice")
	ws := sampleWorkspace(t)

	require.NoError(t, store.Save(ctx, ws))
	ws.Indicators[0].Name = "Updated"
	ws.Version++
	require.NoError(t, store.Save(ctx, ws))

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_indicators`).Scan(&rows))
	assert.Equal(t, 1, rows)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Updated", loaded.Indicators[0].Name)
	assert.Equal(t, ws.Version, loaded.Version)
}

func TestSQLiteStore_SeparateUsers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	alice, err := NewSQLiteStore(path, "alice")
	require.NoError(t, err)
	defer alice.Close()
	require.NoError(t, alice.Save(ctx, sampleWorkspace(t)))

	bob, err := NewSQLiteStore(path, "bob")
	require.NoError(t, err)
	defer bob.Close()
	_, err = bob.Load(ctx)
	assert.ErrorIs(t, err, ErrNoWorkspace)
	assert.Equal(t, "sqlite:"+path, bob.Name())
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", "")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), sampleWorkspace(t)))
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded.Indicators, 2)
}
