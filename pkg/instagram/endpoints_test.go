package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndpoints(t *testing.T) {
	e, err := NewEndpoints("https://www.instagram.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com", e.Base())

	_, err = NewEndpoints("www.instagram.com")
	assert.Error(t, err)

	_, err = NewEndpoints("ftp://example.com")
	assert.Error(t, err)
}

func TestProfileAndPostURL(t *testing.T) {
	e := MustEndpoints(BaseURL)

	assert.Equal(t, "https://www.instagram.com/natgeo/", e.ProfileURL("natgeo"))
	assert.Equal(t, "", e.ProfileURL(""))
	assert.Equal(t, "https://www.instagram.com/p/Cx1/", e.PostURL("Cx1"))
	assert.Equal(t, "https://www.instagram.com/p/dummy-3", e.PlaceholderPostURL(3))
}

func TestAbsolutize(t *testing.T) {
	e := MustEndpoints("http://127.0.0.1:8081")

	tests := []struct {
		ref  string
		want string
	}{
		{"/p/abc/", "http://127.0.0.1:8081/p/abc/"},
		{"p/abc", "http://127.0.0.1:8081/p/abc"},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"//cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Absolutize(tt.ref))
		})
	}
}

func TestIsPostPath(t *testing.T) {
	e := MustEndpoints(BaseURL)

	assert.True(t, e.IsPostPath("/p/Cx1abc/"))
	assert.True(t, e.IsPostPath("/reel/Cx1abc"))
	assert.True(t, e.IsPostPath("https://www.instagram.com/p/Cx1abc/"))
	assert.False(t, e.IsPostPath("https://evil.example/p/Cx1abc/"))
	assert.False(t, e.IsPostPath("/natgeo/"))
	assert.False(t, e.IsPostPath("/p/"))
	assert.False(t, e.IsPostPath("/explore/tags/p/"))
}

func TestFirstPathSegment(t *testing.T) {
	assert.Equal(t, "natgeo", FirstPathSegment("https://www.instagram.com/natgeo/"))
	assert.Equal(t, "natgeo", FirstPathSegment("https://www.instagram.com//natgeo/reels/"))
	assert.Equal(t, "", FirstPathSegment("https://www.instagram.com/"))
}

func TestAvatarAndPlaceholderImage(t *testing.T) {
	assert.Equal(t, "https://ui-avatars.com/api/?name=nasa&background=random", AvatarURL("nasa"))
	assert.Equal(t, "https://picsum.photos/500/500?random=7", PlaceholderImage(7))
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("nat.geo_1"))
	assert.False(t, IsValidUsername(""))
	assert.False(t, IsValidUsername("has space"))
	assert.False(t, IsValidUsername("waytoolongusernamethatexceedsthirty"))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "natgeo", SanitizeUsername("@natgeo"))
	assert.Equal(t, "natgeo", SanitizeUsername("natgeo/ "))
	assert.Equal(t, "natgeo", SanitizeUsername("  @natgeo//"))
	assert.Equal(t, "", SanitizeUsername(""))
}
