package photos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flaire-cli/internal/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePhoto(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))
	return path
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	dir := t.TempDir()
	a := writePhoto(t, dir, "a.png")
	b := writePhoto(t, dir, "b.png")

	library := NewLibrary()
	added, err := library.Add(a, b)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.Equal(t, "a.png", added[0].DisplayName)
	assert.Equal(t, "file://"+a, added[0].PreviewURI)
	assert.False(t, added[0].Uploaded())
}

func TestAddMissingFileAddsNothing(t *testing.T) {
	dir := t.TempDir()
	a := writePhoto(t, dir, "a.png")

	library := NewLibrary()
	_, err := library.Add(a, filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.Empty(t, library.List())
}

func TestRemoveExactEntryPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	library := NewLibrary()
	added, err := library.Add(
		writePhoto(t, dir, "a.png"),
		writePhoto(t, dir, "b.png"),
		writePhoto(t, dir, "c.png"),
	)
	require.NoError(t, err)

	library.Remove(added[1].ID)

	remaining := library.List()
	require.Len(t, remaining, 2)
	assert.Equal(t, "a.png", remaining[0].DisplayName)
	assert.Equal(t, "c.png", remaining[1].DisplayName)

	// Unknown id is a no-op.
	library.Remove("nope")
	assert.Len(t, library.List(), 2)
}

func TestEnsureUploadedReconcilesByFilename(t *testing.T) {
	dir := t.TempDir()
	library := NewLibrary()
	_, err := library.Add(writePhoto(t, dir, "a.png"), writePhoto(t, dir, "b.png"))
	require.NoError(t, err)

	uploads := 0
	router := chi.NewRouter()
	router.Post("/photos/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		require.NoError(t, r.ParseMultipartForm(1<<20))
		json.NewEncoder(w).Encode(map[string]any{
			"photos": []map[string]string{
				{"filename": "a.png", "id": "ph-a"},
				{"filename": "b.png", "id": "ph-b"},
			},
		})
	})
	server := httptest.NewServer(router)
	defer server.Close()
	client := api.New(server.URL, 5*time.Second)

	result, err := library.EnsureUploaded(context.Background(), client, "tok")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "ph-a", result[0].RemoteID)
	assert.Equal(t, "ph-b", result[1].RemoteID)

	// A second call has nothing pending and must not upload again.
	_, err = library.EnsureUploaded(context.Background(), client, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, uploads)
	assert.Empty(t, library.Pending())
}
