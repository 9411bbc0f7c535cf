// Package static embeds the HTML templates content items are rendered with.
package static

import "embed"

// TemplatesFS holds templates/content/{kind}.html, one per content kind.
//
//go:embed templates
var TemplatesFS embed.FS
