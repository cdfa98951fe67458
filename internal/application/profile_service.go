package application

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/pkg/mailer"
)

// MaxProjectMedia caps how many files a single project add may carry.
// Uploads beyond the cap are rejected, not truncated.
const MaxProjectMedia = 5

// MediaUpload is an incoming file already vetted by the HTTP layer for size
// and MIME type. The service still validates the kind tag itself.
type MediaUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

func (s *Service) GetProfile(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetPublicProfile is GetProfile with private fields stripped, for viewing
// someone else's page.
func (s *Service) GetPublicProfile(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// ListUsers returns every non-guest profile except the viewer's own,
// sanitized for public consumption.
func (s *Service) ListUsers(ctx context.Context, viewerID string) ([]*entity.User, error) {
	users, err := s.Repo.ListPublic(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// UpdateProfileInput carries the only scalar fields a profile owner may
// change. Binding into this struct is the allow-list: fields outside it
// never reach the aggregate, whatever the request body contained.
type UpdateProfileInput struct {
	Name    *string
	Age     *int
	Contact *string
	Address *string
}

// UpdateProfile shallow-merges the allow-listed scalars and persists.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Age != nil {
		if *in.Age < entity.MinAge || *in.Age > entity.MaxAge {
			return nil, validationf("age must be between %d and %d", entity.MinAge, entity.MaxAge)
		}
		u.Age = *in.Age
	}
	if in.Name != nil && *in.Name != "" {
		u.Name = *in.Name
	}
	if in.Contact != nil {
		u.Contact = *in.Contact
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	return u, nil
}

// AddReview appends a profile-level review. A rater gets exactly one review
// per profile; resubmission fails and leaves the average untouched.
func (s *Service) AddReview(ctx context.Context, targetID, raterID string, rating int, comment string) (*entity.User, error) {
	if !entity.ValidRating(rating) {
		return nil, validationf("rating must be between %d and %d", entity.MinRating, entity.MaxRating)
	}
	if comment == "" {
		return nil, validationf("comment is required")
	}
	u, err := s.GetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u.HasReviewBy(raterID) {
		return nil, ErrDuplicateReview
	}
	u.Reviews = append(u.Reviews, entity.Review{
		ID:        uuid.NewString(),
		RaterID:   raterID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	})
	u.RecalculateRatings()
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	if rater, rErr := s.Repo.GetByID(ctx, raterID); rErr == nil && rater != nil && !u.IsGuest {
		s.enqueueEmail(ctx, mailer.EmailJob{
			To:       u.Email,
			Template: mailer.TemplateReviewReceived,
			Data:     map[string]any{"Name": u.Name, "RaterName": rater.Name, "Rating": rating},
		})
	}
	return u, nil
}

// RateAchievement appends a bare score to one achievement's rating list,
// one per rater, and recomputes that achievement's average.
func (s *Service) RateAchievement(ctx context.Context, ownerID, achievementID, raterID string, rating int) (*entity.User, error) {
	if !entity.ValidRating(rating) {
		return nil, validationf("rating must be between %d and %d", entity.MinRating, entity.MaxRating)
	}
	u, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	i := u.FindAchievement(achievementID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	for _, r := range u.Achievements[i].Ratings {
		if r.RaterID == raterID {
			return nil, ErrDuplicateRating
		}
	}
	u.Achievements[i].Ratings = append(u.Achievements[i].Ratings, entity.Rating{RaterID: raterID, Rating: rating})
	s.stampAchievements(u)
	u.RecalculateRatings()
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type EducationInput struct {
	Type            string
	InstitutionName string
	StartYear       int
	EndYear         int
	Marks           string
	Degree          string
	Field           string
}

func (s *Service) AddEducation(ctx context.Context, userID string, in EducationInput) (*entity.User, error) {
	if in.InstitutionName == "" {
		return nil, validationf("institution name is required")
	}
	if in.StartYear == 0 {
		return nil, validationf("start year is required")
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Education = append(u.Education, entity.Education{
		ID:              uuid.NewString(),
		Type:            in.Type,
		InstitutionName: in.InstitutionName,
		StartYear:       in.StartYear,
		EndYear:         in.EndYear,
		Marks:           in.Marks,
		Degree:          in.Degree,
		Field:           in.Field,
	})
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) RemoveEducation(ctx context.Context, userID, entryID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := u.FindEducation(entryID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	u.Education = append(u.Education[:i], u.Education[i+1:]...)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type AchievementInput struct {
	Title       string
	Description string
	Date        time.Time
	Media       *MediaUpload
}

// AddAchievement appends an achievement, storing its optional single media
// file first. Achievement media is image or video, never pdf.
func (s *Service) AddAchievement(ctx context.Context, userID string, in AchievementInput) (*entity.User, error) {
	if in.Title == "" || in.Description == "" {
		return nil, validationf("title and description are required")
	}
	if in.Date.IsZero() {
		return nil, validationf("date is required")
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ach := entity.Achievement{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Ratings:     []entity.Rating{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Media != nil {
		ref, err := s.storeUpload(ctx, userID, *in.Media, entity.MediaImage, entity.MediaVideo)
		if err != nil {
			return nil, err
		}
		ach.Media = &ref
	}
	u.Achievements = append(u.Achievements, ach)
	s.stampAchievements(u)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RemoveAchievement releases the entry's media blob, then filters the entry
// out by identifier.
func (s *Service) RemoveAchievement(ctx context.Context, userID, achievementID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := u.FindAchievement(achievementID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	s.Media.ReleaseAchievement(ctx, &u.Achievements[i])
	u.Achievements = append(u.Achievements[:i], u.Achievements[i+1:]...)
	s.stampAchievements(u)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type ProjectInput struct {
	Title       string
	Description string
	Media       []MediaUpload
}

func (s *Service) AddProject(ctx context.Context, userID string, in ProjectInput) (*entity.User, error) {
	if in.Title == "" || in.Description == "" {
		return nil, validationf("title and description are required")
	}
	if len(in.Media) > MaxProjectMedia {
		return nil, validationf("at most %d media files per project", MaxProjectMedia)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	media := make([]entity.Media, 0, len(in.Media))
	for _, up := range in.Media {
		ref, err := s.storeUpload(ctx, userID, up, entity.MediaImage, entity.MediaVideo)
		if err != nil {
			// Roll back blobs stored so far; the aggregate was not touched.
			for i := range media {
				s.Media.Release(ctx, &media[i])
			}
			return nil, err
		}
		media = append(media, ref)
	}
	now := time.Now().UTC()
	u.Projects = append(u.Projects, entity.Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Media:       media,
		Reviews:     []entity.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	s.stampProjects(u)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RemoveProject releases every media blob the project owns before dropping
// it from the collection.
func (s *Service) RemoveProject(ctx context.Context, userID, projectID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := u.FindProject(projectID)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	s.Media.ReleaseProject(ctx, &u.Projects[i])
	u.Projects = append(u.Projects[:i], u.Projects[i+1:]...)
	s.stampProjects(u)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetProfilePhoto stores the uploaded image and swaps it into the photo
// slot, releasing the previous blob.
func (s *Service) SetProfilePhoto(ctx context.Context, userID string, up MediaUpload) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref, err := s.storeUpload(ctx, userID, up, entity.MediaImage)
	if err != nil {
		return nil, err
	}
	s.Media.Attach(ctx, &u.ProfilePhoto, ref)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	return u, nil
}

// SetResume accepts pdf only; any other kind fails before the existing
// reference is touched.
func (s *Service) SetResume(ctx context.Context, userID string, up MediaUpload) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref, err := s.storeUpload(ctx, userID, up, entity.MediaPDF)
	if err != nil {
		return nil, err
	}
	s.Media.Attach(ctx, &u.Resume, ref)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) RemoveResume(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.Media.Clear(ctx, &u.Resume)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// storeUpload validates the kind tag against the slot's accepted kinds and
// writes the blob under a fresh object name.
func (s *Service) storeUpload(ctx context.Context, userID string, up MediaUpload, accepted ...entity.MediaKind) (entity.Media, error) {
	kind, ok := entity.KindFromContentType(up.ContentType)
	if !ok {
		return entity.Media{}, ErrInvalidMediaKind
	}
	allowed := false
	for _, a := range accepted {
		if kind == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return entity.Media{}, ErrInvalidMediaKind
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	objectName := filepath.ToSlash(filepath.Join("uploads", userID, uuid.NewString()+ext))
	obj, err := s.Blobs.Put(ctx, up.Reader, objectName, up.ContentType)
	if err != nil {
		return entity.Media{}, err
	}
	return entity.Media{Kind: kind, URL: obj.URL, Filename: obj.Filename}, nil
}

// save stamps the aggregate and persists it whole. Everything mutated in
// memory lands in one write or not at all.
func (s *Service) save(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Save(ctx, u); err != nil {
		return err
	}
	s.indexProfile(ctx, u)
	return nil
}

// stampAchievements refreshes updated timestamps across the achievements
// collection; called by every operation that touches it before saving.
func (s *Service) stampAchievements(u *entity.User) {
	now := time.Now().UTC()
	for i := range u.Achievements {
		u.Achievements[i].UpdatedAt = now
	}
}

func (s *Service) stampProjects(u *entity.User) {
	now := time.Now().UTC()
	for i := range u.Projects {
		u.Projects[i].UpdatedAt = now
	}
}

// refreshSession mirrors display fields into the Redis session hash while
// preserving its TTL.
func (s *Service) refreshSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	photoURL := ""
	if u.ProfilePhoto != nil {
		photoURL = u.ProfilePhoto.URL
	}
	key := sessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":       u.Name,
		"photo_url":  photoURL,
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}
