package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	userapp "github.com/starfolio/starfolio-api/internal/application"
	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/pkg/helpers"
	"github.com/starfolio/starfolio-api/pkg/response"
	"github.com/starfolio/starfolio-api/pkg/validation"
)

// ProfileHandler serves the profile aggregate: scalar fields, education,
// achievements, projects, media slots, and reviews.
type ProfileHandler struct {
	Svc    *userapp.Service
	Redis  *redis.Client
	Logger *logrus.Logger

	MaxMediaBytes  int64
	MaxResumeBytes int64
	PhotoMaxDim    int
}

func NewProfileHandler(svc *userapp.Service, rdb *redis.Client, logger *logrus.Logger, maxMediaBytes, maxResumeBytes int64, photoMaxDim int) *ProfileHandler {
	return &ProfileHandler{
		Svc:            svc,
		Redis:          rdb,
		Logger:         logger,
		MaxMediaBytes:  maxMediaBytes,
		MaxResumeBytes: maxResumeBytes,
		PhotoMaxDim:    photoMaxDim,
	}
}

const profileCacheTTL = 30 * time.Second

// Me returns the caller's own profile, password hash excluded.
func (h *ProfileHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// Get returns another user's public profile. Responses are cached briefly
// in Redis; staleness is bounded by the TTL so no invalidation is needed.
func (h *ProfileHandler) Get(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	cacheKey := "cache:profile:" + id
	if h.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, h.Redis, cacheKey, &cached); err == nil && ok {
			response.Success(c, http.StatusOK, &cached, "profile", map[string]any{"cached": true})
			return
		}
	}

	u, err := h.Svc.GetPublicProfile(ctx, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if h.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, h.Redis, cacheKey, u, profileCacheTTL); err != nil && h.Logger != nil {
			h.Logger.WithError(err).Warn("profile cache write failed")
		}
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// List returns all registered (non-guest) users except the viewer.
func (h *ProfileHandler) List(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

// Search queries the Elasticsearch profile index.
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "query parameter q is required", nil)
		return
	}
	size := 20
	if s := c.Query("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		response.Fail(c, http.StatusBadGateway, "StorageError", "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

type updateProfileRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Age     *int    `json:"age" binding:"omitempty,gte=1,lte=120"`
	Contact *string `json:"contact"`
	Address *string `json:"address"`
}

// Update merges the allow-listed scalar fields into the caller's profile.
// Unknown fields in the payload are ignored by binding.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), userapp.UpdateProfileInput{
		Name:    req.Name,
		Age:     req.Age,
		Contact: req.Contact,
		Address: req.Address,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile updated", nil)
}

// --- media slots ---

// SetPhoto replaces the profile photo. The upload is normalized to JPEG and
// capped in dimensions before it reaches blob storage.
func (h *ProfileHandler) SetPhoto(c *gin.Context) {
	file, header, ok := h.formFile(c, "photo", h.MaxMediaBytes)
	if !ok {
		return
	}
	defer file.Close()

	normalized, ct, err := helpers.NormalizeImage(file, h.PhotoMaxDim)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "InvalidMediaKind", "file is not a decodable image", nil)
		return
	}
	u, err := h.Svc.SetProfilePhoto(c.Request.Context(), c.GetString("userID"), userapp.MediaUpload{
		Reader:      normalized,
		Filename:    header.Filename,
		ContentType: ct,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile photo updated", nil)
}

// SetResume replaces the resume slot. Only pdf is accepted; on rejection
// the previously stored resume stays untouched.
func (h *ProfileHandler) SetResume(c *gin.Context) {
	file, header, ok := h.formFile(c, "resume", h.MaxResumeBytes)
	if !ok {
		return
	}
	defer file.Close()

	u, err := h.Svc.SetResume(c.Request.Context(), c.GetString("userID"), userapp.MediaUpload{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "resume updated", nil)
}

func (h *ProfileHandler) DeleteResume(c *gin.Context) {
	u, err := h.Svc.RemoveResume(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "resume removed", nil)
}

// --- education ---

type educationRequest struct {
	Type            string `json:"type"`
	InstitutionName string `json:"institutionName" binding:"required"`
	StartYear       int    `json:"startYear" binding:"required,year"`
	EndYear         int    `json:"endYear" binding:"omitempty,year"`
	Marks           string `json:"marks"`
	Degree          string `json:"degree"`
	Field           string `json:"field"`
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.AddEducation(c.Request.Context(), c.GetString("userID"), userapp.EducationInput{
		Type:            req.Type,
		InstitutionName: req.InstitutionName,
		StartYear:       req.StartYear,
		EndYear:         req.EndYear,
		Marks:           req.Marks,
		Degree:          req.Degree,
		Field:           req.Field,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "education added", nil)
}

func (h *ProfileHandler) DeleteEducation(c *gin.Context) {
	u, err := h.Svc.RemoveEducation(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "education removed", nil)
}

// --- achievements ---

// AddAchievement accepts multipart form data with title, description, date,
// and an optional single media file (image or video).
func (h *ProfileHandler) AddAchievement(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxMediaBytes)
	title := c.PostForm("title")
	description := c.PostForm("description")
	date := parseDate(c.PostForm("date"))

	in := userapp.AchievementInput{Title: title, Description: description, Date: date}
	if file, header, err := c.Request.FormFile("media"); err == nil {
		defer file.Close()
		in.Media = &userapp.MediaUpload{
			Reader:      file,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		}
	}

	u, err := h.Svc.AddAchievement(c.Request.Context(), c.GetString("userID"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "achievement added", nil)
}

func (h *ProfileHandler) DeleteAchievement(c *gin.Context) {
	u, err := h.Svc.RemoveAchievement(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "achievement removed", nil)
}

type rateAchievementRequest struct {
	Rating int `json:"rating" binding:"required,rating"`
}

// RateAchievement lets the caller score another user's achievement,
// once per achievement.
func (h *ProfileHandler) RateAchievement(c *gin.Context) {
	var req rateAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.RateAchievement(c.Request.Context(), c.Param("id"), c.Param("achievementID"), c.GetString("userID"), req.Rating)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "achievement rated", nil)
}

// --- projects ---

// AddProject accepts multipart form data with title, description, and up to
// five media files under the "media" field.
func (h *ProfileHandler) AddProject(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxMediaBytes*userapp.MaxProjectMedia)
	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "invalid multipart payload", nil)
		return
	}

	in := userapp.ProjectInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}
	files := form.File["media"]
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range files {
		f, oErr := fh.Open()
		if oErr != nil {
			response.Fail(c, http.StatusBadRequest, "ValidationError", "could not read uploaded file", nil)
			return
		}
		opened = append(opened, f)
		in.Media = append(in.Media, userapp.MediaUpload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	u, err := h.Svc.AddProject(c.Request.Context(), c.GetString("userID"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "project added", nil)
}

func (h *ProfileHandler) DeleteProject(c *gin.Context) {
	u, err := h.Svc.RemoveProject(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "project removed", nil)
}

// --- reviews ---

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,rating"`
	Comment string `json:"comment" binding:"required"`
}

// AddReview posts a review on another user's profile. One review per rater;
// duplicates are rejected and leave the stored average untouched.
func (h *ProfileHandler) AddReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "invalid payload", validation.ToDetails(err))
		return
	}
	targetID := c.Param("id")
	raterID := c.GetString("userID")
	if targetID == raterID {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "cannot review your own profile", nil)
		return
	}
	u, err := h.Svc.AddReview(c.Request.Context(), targetID, raterID, req.Rating, req.Comment)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "review added", nil)
}

// formFile pulls one named file out of a size-capped multipart request.
func (h *ProfileHandler) formFile(c *gin.Context, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "ValidationError", "file field "+field+" is required", nil)
		return nil, nil, false
	}
	return file, header, true
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
