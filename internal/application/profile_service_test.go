package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
)

func seedUser(t *testing.T, repo *memoryRepo, name, email string) *entity.User {
	t.Helper()
	u := entity.NewUser(name, email, "hash", false)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestAddReviewHappyPathAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())

	target := seedUser(t, repo, "Target", "target@example.com")
	raterA := seedUser(t, repo, "Alice", "a@example.com")
	raterB := seedUser(t, repo, "Bob", "b@example.com")

	got, err := svc.AddReview(ctx, target.ID, raterA.ID, 5, "excellent")
	require.NoError(t, err)
	require.Equal(t, 5.0, got.AverageRating)

	got, err = svc.AddReview(ctx, target.ID, raterB.ID, 3, "decent")
	require.NoError(t, err)
	require.Equal(t, 4.0, got.AverageRating)
	require.Len(t, got.Reviews, 2)

	// Same rater again: rejected, average unchanged.
	_, err = svc.AddReview(ctx, target.ID, raterA.ID, 1, "changed my mind")
	require.ErrorIs(t, err, ErrDuplicateReview)

	fresh, err := svc.GetProfile(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, 4.0, fresh.AverageRating)
	require.Len(t, fresh.Reviews, 2)
}

func TestAddReviewValidation(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())
	target := seedUser(t, repo, "Target", "target@example.com")

	_, err := svc.AddReview(ctx, target.ID, "rater", 0, "bad score")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddReview(ctx, target.ID, "rater", 6, "bad score")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddReview(ctx, target.ID, "rater", 3, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddReview(ctx, "missing-profile", "rater", 3, "fine")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRateAchievement(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.AddAchievement(ctx, owner.ID, AchievementInput{
		Title:       "Hackathon winner",
		Description: "first place",
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got.Achievements, 1)
	achID := got.Achievements[0].ID
	require.Equal(t, 0.0, got.Achievements[0].AverageRating)

	got, err = svc.RateAchievement(ctx, owner.ID, achID, "rater-c", 4)
	require.NoError(t, err)
	require.Equal(t, 4.0, got.Achievements[0].AverageRating)

	_, err = svc.RateAchievement(ctx, owner.ID, achID, "rater-c", 5)
	require.ErrorIs(t, err, ErrDuplicateRating)

	_, err = svc.RateAchievement(ctx, owner.ID, "nope", "rater-d", 5)
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRemoveProjectReleasesEveryBlob(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.AddProject(ctx, owner.ID, ProjectInput{
		Title:       "Portfolio site",
		Description: "built with react",
		Media: []MediaUpload{
			upload("a.png", "image/png"),
			upload("b.jpg", "image/jpeg"),
			upload("c.mp4", "video/mp4"),
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Projects, 1)
	require.Len(t, got.Projects[0].Media, 3)
	require.Equal(t, 3, blobs.stored())

	got, err = svc.RemoveProject(ctx, owner.ID, got.Projects[0].ID)
	require.NoError(t, err)
	require.Empty(t, got.Projects)
	require.Len(t, blobs.deleted, 3)
	require.Equal(t, 0, blobs.stored())
}

func TestAddProjectMediaCap(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	media := make([]MediaUpload, MaxProjectMedia+1)
	for i := range media {
		media[i] = upload("m.png", "image/png")
	}
	_, err := svc.AddProject(ctx, owner.ID, ProjectInput{Title: "t", Description: "d", Media: media})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, 0, blobs.stored())
}

func TestAddProjectRejectsPDFMediaAndRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	_, err := svc.AddProject(ctx, owner.ID, ProjectInput{
		Title:       "t",
		Description: "d",
		Media: []MediaUpload{
			upload("ok.png", "image/png"),
			upload("cv.pdf", "application/pdf"),
		},
	})
	require.ErrorIs(t, err, ErrInvalidMediaKind)
	// The blob stored before the failure was released again.
	require.Equal(t, 0, blobs.stored())

	fresh, err := svc.GetProfile(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, fresh.Projects)
}

func TestRemoveAchievementReleasesMedia(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	up := upload("proof.png", "image/png")
	got, err := svc.AddAchievement(ctx, owner.ID, AchievementInput{
		Title:       "Award",
		Description: "desc",
		Date:        time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		Media:       &up,
	})
	require.NoError(t, err)
	require.NotNil(t, got.Achievements[0].Media)
	require.Equal(t, 1, blobs.stored())

	got, err = svc.RemoveAchievement(ctx, owner.ID, got.Achievements[0].ID)
	require.NoError(t, err)
	require.Empty(t, got.Achievements)
	require.Len(t, blobs.deleted, 1)

	_, err = svc.RemoveAchievement(ctx, owner.ID, "missing")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSetProfilePhotoReplacesPriorBlob(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.SetProfilePhoto(ctx, owner.ID, upload("one.png", "image/png"))
	require.NoError(t, err)
	require.NotNil(t, got.ProfilePhoto)
	first := got.ProfilePhoto.Filename
	require.Empty(t, blobs.deleted)

	got, err = svc.SetProfilePhoto(ctx, owner.ID, upload("two.jpg", "image/jpeg"))
	require.NoError(t, err)
	require.NotNil(t, got.ProfilePhoto)
	require.NotEqual(t, first, got.ProfilePhoto.Filename)
	require.Equal(t, []string{first}, blobs.deleted)
	require.Equal(t, 1, blobs.stored())
}

func TestSetProfilePhotoRejectsNonImage(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	_, err := svc.SetProfilePhoto(ctx, owner.ID, upload("cv.pdf", "application/pdf"))
	require.ErrorIs(t, err, ErrInvalidMediaKind)
	require.Equal(t, 0, blobs.stored())
}

func TestSetResumeEnforcesPDF(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.SetResume(ctx, owner.ID, upload("cv.pdf", "application/pdf"))
	require.NoError(t, err)
	require.NotNil(t, got.Resume)
	require.Equal(t, entity.MediaPDF, got.Resume.Kind)
	existing := got.Resume.Filename

	// Wrong kind: rejected, prior reference untouched, no deletion.
	_, err = svc.SetResume(ctx, owner.ID, upload("pic.png", "image/png"))
	require.ErrorIs(t, err, ErrInvalidMediaKind)

	fresh, err := svc.GetProfile(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.Resume)
	require.Equal(t, existing, fresh.Resume.Filename)
	require.Empty(t, blobs.deleted)
}

func TestRemoveResume(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	blobs := newMemoryBlobs()
	svc := newTestService(repo, blobs)
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.SetResume(ctx, owner.ID, upload("cv.pdf", "application/pdf"))
	require.NoError(t, err)
	stored := got.Resume.Filename

	got, err = svc.RemoveResume(ctx, owner.ID)
	require.NoError(t, err)
	require.Nil(t, got.Resume)
	require.Equal(t, []string{stored}, blobs.deleted)

	// Removing again is a no-op, not an error.
	got, err = svc.RemoveResume(ctx, owner.ID)
	require.NoError(t, err)
	require.Nil(t, got.Resume)
	require.Len(t, blobs.deleted, 1)
}

func TestUpdateProfileAllowList(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())
	owner := seedUser(t, repo, "Owner", "o@example.com")

	age := 30
	contact := "+15550100"
	got, err := svc.UpdateProfile(ctx, owner.ID, UpdateProfileInput{Age: &age, Contact: &contact})
	require.NoError(t, err)
	require.Equal(t, 30, got.Age)
	require.Equal(t, "+15550100", got.Contact)
	require.Equal(t, "Owner", got.Name)

	bad := 121
	_, err = svc.UpdateProfile(ctx, owner.ID, UpdateProfileInput{Age: &bad})
	require.ErrorIs(t, err, ErrValidation)

	zero := 0
	_, err = svc.UpdateProfile(ctx, owner.ID, UpdateProfileInput{Age: &zero})
	require.ErrorIs(t, err, ErrValidation)
}

func TestEducationAddRemove(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.AddEducation(ctx, owner.ID, EducationInput{
		Type:            "graduation",
		InstitutionName: "MIT",
		StartYear:       2018,
		EndYear:         2022,
		Degree:          "BSc",
		Field:           "CS",
	})
	require.NoError(t, err)
	require.Len(t, got.Education, 1)
	require.NotEmpty(t, got.Education[0].ID)

	_, err = svc.AddEducation(ctx, owner.ID, EducationInput{Type: "school", StartYear: 2010})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddEducation(ctx, owner.ID, EducationInput{Type: "school", InstitutionName: "X"})
	require.ErrorIs(t, err, ErrValidation)

	got, err = svc.RemoveEducation(ctx, owner.ID, got.Education[0].ID)
	require.NoError(t, err)
	require.Empty(t, got.Education)

	_, err = svc.RemoveEducation(ctx, owner.ID, "missing")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestListUsersExcludesGuestsAndViewer(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())

	viewer := seedUser(t, repo, "Viewer", "v@example.com")
	seedUser(t, repo, "Other", "other@example.com")
	guest := entity.NewUser("Guest", "g@example.com", "hash", true)
	require.NoError(t, repo.Create(ctx, guest))

	users, err := svc.ListUsers(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Other", users[0].Name)
	require.Empty(t, users[0].PasswordHash)
}

func TestTimestampsRefreshOnCollectionChange(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo, newMemoryBlobs())
	owner := seedUser(t, repo, "Owner", "o@example.com")

	got, err := svc.AddProject(ctx, owner.ID, ProjectInput{Title: "one", Description: "d"})
	require.NoError(t, err)
	created := got.Projects[0].CreatedAt
	firstUpdate := got.Projects[0].UpdatedAt

	time.Sleep(5 * time.Millisecond)
	got, err = svc.AddProject(ctx, owner.ID, ProjectInput{Title: "two", Description: "d"})
	require.NoError(t, err)

	// First project keeps its creation time but its update stamp moved with
	// the collection write.
	require.Equal(t, created.Unix(), got.Projects[0].CreatedAt.Unix())
	require.True(t, got.Projects[0].UpdatedAt.After(firstUpdate))
}
