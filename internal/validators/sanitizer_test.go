package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tesseract-hub/tour-service/internal/models"
)

func TestClamping(t *testing.T) {
	assert.Equal(t, 180.0, ClampYaw(200))
	assert.Equal(t, -180.0, ClampYaw(-500))
	assert.Equal(t, 45.5, ClampYaw(45.5))

	assert.Equal(t, -90.0, ClampPitch(-120))
	assert.Equal(t, 90.0, ClampPitch(91))
	assert.Equal(t, 0.0, ClampPitch(0))

	assert.Equal(t, 30.0, ClampFov(10))
	assert.Equal(t, 120.0, ClampFov(500))
	assert.Equal(t, 90.0, ClampFov(90))
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Lobby Entrance", "Lobby Entrance"},
		{"tags stripped", "<b>Lobby</b> Entrance", "Lobby Entrance"},
		{"script removed with body", `Hello<script>alert("x")</script> World`, "Hello World"},
		{"style removed with body", "A<style>body{}</style>B", "AB"},
		{"comments removed", "A<!-- hidden -->B", "AB"},
		{"whitespace trimmed", "  Lobby  ", "Lobby"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in))
		})
	}
}

func TestSanitizeRichText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"allowed formatting kept", "<b>bold</b> and <em>em</em>", "<b>bold</b> and <em>em</em>"},
		{"lists kept", "<ul><li>one</li></ul>", "<ul><li>one</li></ul>"},
		{"script stripped", `before<script>alert(1)</script>after`, "beforeafter"},
		{"disallowed tag stripped", `<iframe src="https://evil"></iframe>text`, "text"},
		{"event handlers stripped", `<b onclick="steal()">x</b>`, "x</b>"},
		{"https anchor kept", `<a href="https://example.com">site</a>`, `<a href="https://example.com">site</a>`},
		{"javascript anchor open tag stripped", `<a href="javascript:alert(1)">x</a>`, "x</a>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeRichText(tt.in))
		})
	}
}

func TestSanitizeEnums(t *testing.T) {
	assert.Equal(t, models.ImageTypeCubemap, SanitizeImageType("cubemap"))
	assert.Equal(t, models.ImageTypeCubemap, SanitizeImageType(" CUBEMAP "))
	assert.Equal(t, models.DefaultImageType, SanitizeImageType("holographic"))
	assert.Equal(t, models.DefaultImageType, SanitizeImageType(""))

	assert.Equal(t, models.HotspotTypeScene, SanitizeHotspotType("scene"))
	assert.Equal(t, models.HotspotTypeLink, SanitizeHotspotType("url"))
	assert.Equal(t, models.DefaultHotspotType, SanitizeHotspotType("teleport"))

	assert.Equal(t, "map-pin", SanitizeIcon("map-pin"))
	assert.Equal(t, models.DefaultHotspotIcon, SanitizeIcon("skull"))
}

func TestSanitizeURL(t *testing.T) {
	assert.Nil(t, SanitizeURL(nil))
	assert.Nil(t, SanitizeURL(strPtr("")))
	assert.Nil(t, SanitizeURL(strPtr("javascript:alert(1)")))

	got := SanitizeURL(strPtr("  https://example.com/a "))
	if assert.NotNil(t, got) {
		assert.Equal(t, "https://example.com/a", *got)
	}
}

func TestSanitizeOptionalFields(t *testing.T) {
	assert.Nil(t, SanitizeOptionalText(nil))
	assert.Nil(t, SanitizeOptionalText(strPtr("<script>x</script>")))

	got := SanitizeOptionalText(strPtr("<b>Front</b> Desk"))
	if assert.NotNil(t, got) {
		assert.Equal(t, "Front Desk", *got)
	}

	rich := SanitizeOptionalRichText(strPtr("<p>Welcome</p>"))
	if assert.NotNil(t, rich) {
		assert.Equal(t, "<p>Welcome</p>", *rich)
	}
}
