package services

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lectern/models"
	"github.com/akinalp/lectern/static"
)

func strPtr(s string) *string { return &s }

func TestRendererPerKind(t *testing.T) {
	r, err := NewContentRenderer(static.TemplatesFS)
	require.NoError(t, err)

	html, err := r.Render(&models.Item{Kind: models.ContentFile, Title: "Slides", FileURL: strPtr("/api/uploads/x_s.pdf")})
	require.NoError(t, err)
	assert.Contains(t, html, `href="/api/uploads/x_s.pdf"`)
	assert.Contains(t, html, "Download file")

	html, err = r.Render(&models.Item{Kind: models.ContentVideo, Title: "Talk", VideoURL: strPtr("https://example.com/v.mp4")})
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="https://example.com/v.mp4">`)
	assert.NotContains(t, html, "iframe")

	_, err = r.Render(&models.Item{Kind: "audio"})
	assert.Error(t, err)
}

func TestRendererEscapesTitles(t *testing.T) {
	r, err := NewContentRenderer(static.TemplatesFS)
	require.NoError(t, err)

	html, err := r.Render(&models.Item{Kind: models.ContentText, Title: `<script>alert(1)</script>`, Body: strPtr("x")})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRendererRequiresEveryTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/content/text.html": {Data: []byte("{{.Title}}")},
	}
	_, err := NewContentRenderer(fsys)
	assert.Error(t, err)
}

func TestVideoEmbedURL(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc": "https://www.youtube.com/embed/abc",
		"https://youtu.be/xyz":                "https://www.youtube.com/embed/xyz",
		"https://vimeo.com/12345":             "https://player.vimeo.com/video/12345",
		"https://example.com/video.mp4":       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, videoEmbedURL(&in), in)
	}
	assert.Equal(t, "", videoEmbedURL(nil))
}
