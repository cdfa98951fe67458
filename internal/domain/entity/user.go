package entity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// User is the aggregate root for a profile and every nested collection it
// owns. Nested entries carry their own generated IDs so removal by
// identifier stays correct regardless of slice position.
//
// The password hash is excluded from JSON so the aggregate document and API
// payloads never carry it; persistence keeps it in a dedicated column.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	IsGuest bool   `json:"isGuest"`
	GuestID string `json:"guestId,omitempty"`

	Age     int    `json:"age,omitempty"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`

	ProfilePhoto *Media `json:"profilePhoto,omitempty"`
	Resume       *Media `json:"resume,omitempty"`

	Education    []Education   `json:"education"`
	Achievements []Achievement `json:"achievements"`
	Projects     []Project     `json:"projects"`
	Reviews      []Review      `json:"reviews"`

	AverageRating float64 `json:"averageRating"`
	ProfileLocked bool    `json:"profileLocked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Education is a CV entry. Start year is required, end year optional.
type Education struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	InstitutionName string `json:"institutionName"`
	StartYear       int    `json:"startYear"`
	EndYear         int    `json:"endYear,omitempty"`
	Marks           string `json:"marks,omitempty"`
	Degree          string `json:"degree,omitempty"`
	Field           string `json:"field,omitempty"`
}

// Achievement holds at most one media reference and a flat rating list.
type Achievement struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Media         *Media    `json:"media,omitempty"`
	Ratings       []Rating  `json:"ratings"`
	AverageRating float64   `json:"averageRating"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Project owns zero or more media references and its own review list.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Media         []Media   `json:"media"`
	Reviews       []Review  `json:"reviews"`
	AverageRating float64   `json:"averageRating"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Review is a rated comment left by another user.
type Review struct {
	ID        string    `json:"id"`
	RaterID   string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Rating is a bare score without commentary, used on achievements.
type Rating struct {
	RaterID string `json:"userId"`
	Rating  int    `json:"rating"`
}

const (
	MinRating = 1
	MaxRating = 5

	MinAge = 1
	MaxAge = 120
)

// NewUser builds a registered user. Guest users get a guest identifier
// exactly once, at creation; it is never regenerated afterwards.
func NewUser(name, email, passwordHash string, isGuest bool) *User {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsGuest:      isGuest,
		Education:    []Education{},
		Achievements: []Achievement{},
		Projects:     []Project{},
		Reviews:      []Review{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if isGuest {
		u.GuestID = NewGuestID()
	}
	return u
}

const guestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewGuestID returns an identifier of the form guest_<unixms>_<rand9>.
func NewGuestID() string {
	b := make([]byte, 9)
	max := big.NewInt(int64(len(guestIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for id generation
			panic(err)
		}
		b[i] = guestIDAlphabet[n.Int64()]
	}
	return fmt.Sprintf("guest_%d_%s", time.Now().UnixMilli(), string(b))
}

// ValidRating reports whether a score is inside the accepted range.
func ValidRating(score int) bool {
	return score >= MinRating && score <= MaxRating
}

func (u *User) FindEducation(id string) int {
	for i := range u.Education {
		if u.Education[i].ID == id {
			return i
		}
	}
	return -1
}

func (u *User) FindAchievement(id string) int {
	for i := range u.Achievements {
		if u.Achievements[i].ID == id {
			return i
		}
	}
	return -1
}

func (u *User) FindProject(id string) int {
	for i := range u.Projects {
		if u.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// HasReviewBy reports whether raterID already left a profile-level review.
func (u *User) HasReviewBy(raterID string) bool {
	for i := range u.Reviews {
		if u.Reviews[i].RaterID == raterID {
			return true
		}
	}
	return false
}

// Sanitized returns a copy safe to hand to other users: the hash never
// serializes, and guest identifiers are not anyone else's business.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.GuestID = ""
	return &c
}
