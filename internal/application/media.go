package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/internal/domain/storage"
)

// MediaManager tracks which stored blobs belong to a profile or one of its
// nested entries and releases them when a reference is replaced or its
// owner is removed. Blob deletion is best effort: a failed delete leaves a
// stale object behind and is logged as a warning, never surfaced as an
// operation failure.
type MediaManager struct {
	Blobs  storage.BlobStore
	Logger *logrus.Logger
}

func NewMediaManager(blobs storage.BlobStore, logger *logrus.Logger) *MediaManager {
	return &MediaManager{Blobs: blobs, Logger: logger}
}

// Attach occupies the slot with next, releasing whatever reference held it
// before. Passing the slot keeps the state machine in one place:
// empty->occupied, occupied->occupied' (prior blob deleted).
func (m *MediaManager) Attach(ctx context.Context, slot **entity.Media, next entity.Media) {
	if prior := *slot; prior != nil {
		m.Release(ctx, prior)
	}
	cp := next
	*slot = &cp
}

// Clear empties the slot, releasing the occupying reference if any.
func (m *MediaManager) Clear(ctx context.Context, slot **entity.Media) {
	if prior := *slot; prior != nil {
		m.Release(ctx, prior)
	}
	*slot = nil
}

// ReleaseAchievement drops the blob held by an achievement about to be
// removed from its collection.
func (m *MediaManager) ReleaseAchievement(ctx context.Context, a *entity.Achievement) {
	if a.Media != nil {
		m.Release(ctx, a.Media)
	}
}

// ReleaseProject drops every blob held by a project about to be removed.
func (m *MediaManager) ReleaseProject(ctx context.Context, p *entity.Project) {
	for i := range p.Media {
		m.Release(ctx, &p.Media[i])
	}
}

// Release deletes a single referenced blob, best effort.
func (m *MediaManager) Release(ctx context.Context, ref *entity.Media) {
	if ref == nil || ref.Filename == "" {
		return
	}
	if err := m.Blobs.Delete(ctx, ref.Filename); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("filename", ref.Filename).Warn("blob deletion failed; object may linger")
	}
}
