package entity

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGuestUserGetsGuestID(t *testing.T) {
	u := NewUser("Guest", "g@example.com", "hash", true)
	require.True(t, u.IsGuest)
	require.True(t, strings.HasPrefix(u.GuestID, "guest_"))
	parts := strings.Split(u.GuestID, "_")
	require.Len(t, parts, 3)
	require.Len(t, parts[2], 9)

	// Non-guest profiles never carry one.
	r := NewUser("Reg", "r@example.com", "hash", false)
	require.Empty(t, r.GuestID)
}

func TestGuestIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewGuestID()
		require.False(t, seen[id], "duplicate guest id %s", id)
		seen[id] = true
	}
}

func TestPasswordHashNeverSerializes(t *testing.T) {
	u := NewUser("ada", "ada@example.com", "$2a$10$secret", false)
	b, err := json.Marshal(u)
	require.NoError(t, err)
	require.NotContains(t, string(b), "secret")
}

func TestSanitizedStripsPrivateFields(t *testing.T) {
	u := NewUser("Guest", "g@example.com", "hash", true)
	s := u.Sanitized()
	require.Empty(t, s.PasswordHash)
	require.Empty(t, s.GuestID)
	// Original untouched.
	require.NotEmpty(t, u.GuestID)
	require.NotEmpty(t, u.PasswordHash)
}

func TestKindFromContentType(t *testing.T) {
	for ct, want := range map[string]MediaKind{
		"image/jpeg":      MediaImage,
		"image/png":       MediaImage,
		"image/gif":       MediaImage,
		"video/mp4":       MediaVideo,
		"application/pdf": MediaPDF,
	} {
		kind, ok := KindFromContentType(ct)
		require.True(t, ok, ct)
		require.Equal(t, want, kind)
	}
	kind, ok := KindFromContentType("image/png; charset=binary")
	require.True(t, ok)
	require.Equal(t, MediaImage, kind)

	_, ok = KindFromContentType("application/zip")
	require.False(t, ok)
	_, ok = KindFromContentType("")
	require.False(t, ok)
}

func TestValidRating(t *testing.T) {
	require.False(t, ValidRating(0))
	require.True(t, ValidRating(1))
	require.True(t, ValidRating(5))
	require.False(t, ValidRating(6))
	require.False(t, ValidRating(-3))
}

func TestFindersByID(t *testing.T) {
	u := NewUser("ada", "ada@example.com", "x", false)
	u.Projects = []Project{{ID: "p1"}, {ID: "p2"}}
	u.Achievements = []Achievement{{ID: "a1"}}
	u.Education = []Education{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}

	require.Equal(t, 1, u.FindProject("p2"))
	require.Equal(t, -1, u.FindProject("nope"))
	require.Equal(t, 0, u.FindAchievement("a1"))
	require.Equal(t, 2, u.FindEducation("e3"))
}
