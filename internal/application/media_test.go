package application

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
)

func newTestMediaManager(blobs *memoryBlobs) *MediaManager {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewMediaManager(blobs, logger)
}

func TestMediaManagerSlotTransitions(t *testing.T) {
	ctx := context.Background()
	blobs := newMemoryBlobs()
	m := newTestMediaManager(blobs)

	var slot *entity.Media

	// empty -> occupied: nothing released.
	m.Attach(ctx, &slot, entity.Media{Kind: entity.MediaImage, URL: "u1", Filename: "f1"})
	require.NotNil(t, slot)
	require.Equal(t, "f1", slot.Filename)
	require.Empty(t, blobs.deleted)

	// occupied -> occupied': prior blob deleted.
	m.Attach(ctx, &slot, entity.Media{Kind: entity.MediaImage, URL: "u2", Filename: "f2"})
	require.Equal(t, "f2", slot.Filename)
	require.Equal(t, []string{"f1"}, blobs.deleted)

	// occupied -> empty: remaining blob deleted.
	m.Clear(ctx, &slot)
	require.Nil(t, slot)
	require.Equal(t, []string{"f1", "f2"}, blobs.deleted)

	// empty -> empty: no-op.
	m.Clear(ctx, &slot)
	require.Len(t, blobs.deleted, 2)
}

func TestMediaManagerReleaseOwners(t *testing.T) {
	ctx := context.Background()
	blobs := newMemoryBlobs()
	m := newTestMediaManager(blobs)

	p := entity.Project{Media: []entity.Media{
		{Filename: "a"}, {Filename: "b"}, {Filename: "c"},
	}}
	m.ReleaseProject(ctx, &p)
	require.ElementsMatch(t, []string{"a", "b", "c"}, blobs.deleted)

	blobs2 := newMemoryBlobs()
	m2 := newTestMediaManager(blobs2)
	a := entity.Achievement{Media: &entity.Media{Filename: "proof"}}
	m2.ReleaseAchievement(ctx, &a)
	require.Equal(t, []string{"proof"}, blobs2.deleted)

	// No media: nothing to release.
	m2.ReleaseAchievement(ctx, &entity.Achievement{})
	require.Len(t, blobs2.deleted, 1)
}
