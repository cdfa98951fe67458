package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
	repo "github.com/starfolio/starfolio-api/internal/domain/repository"
	"github.com/starfolio/starfolio-api/internal/domain/storage"
	"github.com/starfolio/starfolio-api/pkg/helpers"
	"github.com/starfolio/starfolio-api/pkg/mailer"
)

// Service owns every mutation of the profile aggregate plus the auth and
// session flows around it. Each mutating operation is a single
// read-modify-write on one aggregate; the repository is the sole arbiter of
// write ordering (last write wins, no version token).
type Service struct {
	Repo            repo.UserRepository
	Blobs           storage.BlobStore
	Media           *MediaManager
	JWT             *helpers.JWTManager
	Redis           *redis.Client
	Logger          *logrus.Logger
	ES              *elasticsearch.Client
	ESProfilesIndex string
	Pub             *helpers.RabbitPublisher
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewService(repo repo.UserRepository, blobs storage.BlobStore, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esProfilesIndex string, pub *helpers.RabbitPublisher) *Service {
	return &Service{
		Repo:            repo,
		Blobs:           blobs,
		Media:           NewMediaManager(blobs, logger),
		JWT:             jwt,
		Redis:           rdb,
		Logger:          logger,
		ES:              es,
		ESProfilesIndex: esProfilesIndex,
		Pub:             pub,
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	IsGuest  bool
}

// Register creates the profile aggregate. Guest profiles get their guest
// identifier generated exactly once here, inside entity.NewUser.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	existing, err := s.Repo.GetByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := entity.NewUser(in.Name, strings.ToLower(in.Email), hash, in.IsGuest)
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if !u.IsGuest {
		s.enqueueEmail(ctx, mailer.EmailJob{
			To:       u.Email,
			Template: mailer.TemplateWelcome,
			Data:     map[string]any{"Name": u.Name},
		})
	}
	s.indexProfile(ctx, u)
	return u, nil
}

// Authenticate validates email/password without issuing tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records the session hash
// in Redis so middleware can resolve the user without a DB hit.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		photoURL := ""
		if u.ProfilePhoto != nil {
			photoURL = u.ProfilePhoto.URL
		}
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"photo_url":  photoURL,
			"is_guest":   u.IsGuest,
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

type LoginResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsGuest bool   `json:"is_guest"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, IsGuest: u.IsGuest}, pair, nil
}

// GuestLogin creates a throwaway guest profile and logs it straight in.
// The password is random and never handed out; a guest session lives only
// as long as its tokens do.
func (s *Service) GuestLogin(ctx context.Context, name, email string) (*LoginResponse, TokenPair, error) {
	u, err := s.Register(ctx, RegisterInput{
		Name:     name,
		Email:    strings.ToLower(email),
		Password: uuid.NewString(),
		IsGuest:  true,
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, IsGuest: true}, pair, nil
}

// Refresh rotates the session id and both tokens, rejecting refresh tokens
// whose session id no longer matches the stored session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout drops the session hash.
func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, sessionKey(userID)).Err()
	}
}

func (s *Service) enqueueEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("failed to publish email job")
	}
}

// indexProfile pushes a browse/search summary of the profile to
// Elasticsearch. Guests are kept out of the index entirely.
func (s *Service) indexProfile(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESProfilesIndex == "" || u.IsGuest {
		return
	}
	photoURL := ""
	if u.ProfilePhoto != nil {
		photoURL = u.ProfilePhoto.URL
	}
	doc := map[string]any{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"photo_url":      photoURL,
		"average_rating": u.AverageRating,
		"review_count":   len(u.Reviews),
		"created_at":     u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":     u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESProfilesIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers runs a multi_match query over the indexed profile summaries.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESProfilesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESProfilesIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
