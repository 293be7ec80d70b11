package photos

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"flaire-cli/internal/api"
	"flaire-cli/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Library holds the photos a user has selected for the profile workflow.
// Entries keep their intake order.
type Library struct {
	mu     sync.Mutex
	photos []models.LocalPhoto
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{}
}

// Add registers local files as pending photos, assigning each a locally
// unique id and a renderable preview URI. Missing files are rejected before
// anything is added.
func (l *Library) Add(paths ...string) ([]models.LocalPhoto, error) {
	added := make([]models.LocalPhoto, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		added = append(added, models.LocalPhoto{
			ID:          uuid.New().String(),
			Path:        abs,
			PreviewURI:  "file://" + abs,
			DisplayName: filepath.Base(abs),
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.photos = append(l.photos, added...)
	return added, nil
}

// Remove deletes exactly the photo with the given id, preserving the order of
// the remainder. Unknown ids are a no-op.
func (l *Library) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.photos[:0]
	for _, photo := range l.photos {
		if photo.ID != id {
			kept = append(kept, photo)
		}
	}
	l.photos = kept
}

// List returns the photos in intake order.
func (l *Library) List() []models.LocalPhoto {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.LocalPhoto, len(l.photos))
	copy(out, l.photos)
	return out
}

// Pending returns the photos the backend has not stored yet.
func (l *Library) Pending() []models.LocalPhoto {
	l.mu.Lock()
	defer l.mu.Unlock()
	var pending []models.LocalPhoto
	for _, photo := range l.photos {
		if !photo.Uploaded() {
			pending = append(pending, photo)
		}
	}
	return pending
}

// EnsureUploaded uploads every pending photo and reconciles the returned
// backend ids onto the entries by display name. Already-uploaded photos are
// untouched.
func (l *Library) EnsureUploaded(ctx context.Context, client *api.Client, token string) ([]models.LocalPhoto, error) {
	pending := l.Pending()
	if len(pending) == 0 {
		return l.List(), nil
	}

	paths := make([]string, len(pending))
	for i, photo := range pending {
		paths[i] = photo.Path
	}

	uploaded, err := client.UploadPhotos(ctx, token, paths)
	if err != nil {
		return nil, err
	}

	idByFilename := make(map[string]string, len(uploaded))
	for _, photo := range uploaded {
		idByFilename[photo.Filename] = photo.ID
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.photos {
		if l.photos[i].Uploaded() {
			continue
		}
		if remoteID, ok := idByFilename[l.photos[i].DisplayName]; ok {
			l.photos[i].RemoteID = remoteID
		} else {
			log.Warn().Str("name", l.photos[i].DisplayName).Msg("Upload response missing photo")
		}
	}

	out := make([]models.LocalPhoto, len(l.photos))
	copy(out, l.photos)
	return out, nil
}
