package services

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"

	"github.com/akinalp/lectern/models"
)

// ContentRenderer turns items into HTML fragments, one template per kind.
type ContentRenderer struct {
	templates map[models.ContentKind]*template.Template
}

var renderFuncs = template.FuncMap{
	"paragraphs": func(body *string) []string {
		if body == nil {
			return nil
		}
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(*body, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"embedURL": videoEmbedURL,
}

// NewContentRenderer parses templates/content/<kind>.html from fsys for
// every content kind and fails if one is missing.
func NewContentRenderer(fsys fs.FS) (*ContentRenderer, error) {
	r := &ContentRenderer{templates: make(map[models.ContentKind]*template.Template)}

	for _, kind := range models.ContentKinds() {
		name := fmt.Sprintf("templates/content/%s.html", kind)
		tmpl, err := template.New(string(kind) + ".html").Funcs(renderFuncs).ParseFS(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.templates[kind] = tmpl
	}

	return r, nil
}

// Render returns item's HTML.
func (r *ContentRenderer) Render(item *models.Item) (string, error) {
	tmpl, ok := r.templates[item.Kind]
	if !ok {
		return "", fmt.Errorf("no template for content kind %q", item.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, item); err != nil {
		return "", fmt.Errorf("failed to render %s item %s: %w", item.Kind, item.ID, err)
	}
	return buf.String(), nil
}

// RenderContents fills Item.Rendered for every content in place.
func (r *ContentRenderer) RenderContents(contents []models.Content) error {
	for i := range contents {
		if contents[i].Item == nil {
			continue
		}
		html, err := r.Render(contents[i].Item)
		if err != nil {
			return err
		}
		contents[i].Item.Rendered = html
	}
	return nil
}

// videoEmbedURL maps YouTube and Vimeo watch links to their embeddable
// player URL. Other hosts yield "".
func videoEmbedURL(raw *string) string {
	if raw == nil {
		return ""
	}
	u, err := url.Parse(*raw)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + url.PathEscape(id)
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/embed/" + url.PathEscape(id)
		}
	case "vimeo.com":
		if id := strings.Trim(u.Path, "/"); id != "" && !strings.Contains(id, "/") {
			return "https://player.vimeo.com/video/" + url.PathEscape(id)
		}
	}
	return ""
}
