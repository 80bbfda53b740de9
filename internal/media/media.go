// Package media is the boundary to the image subsystem. The sync core
// consumes its output as an opaque, ordered list of already-validated
// media references; filtering and validation happen on the other side
// of this interface.
package media

import (
	"context"

	"github.com/mjardine/gemsync/internal/models"
)

// Source provides the validated media references for a group, in the
// order they should appear on the catalog entity.
type Source interface {
	ValidatedMedia(ctx context.Context, group *models.Group) ([]models.MediaRef, error)
}

// NopSource attaches no media; used for runs without image syncing.
type NopSource struct{}

func (NopSource) ValidatedMedia(context.Context, *models.Group) ([]models.MediaRef, error) {
	return nil, nil
}

// StaticSource serves a fixed reference list per group ID; test helper
// and stand-in for pre-resolved media manifests.
type StaticSource map[string][]models.MediaRef

func (s StaticSource) ValidatedMedia(_ context.Context, group *models.Group) ([]models.MediaRef, error) {
	return s[group.ID], nil
}
