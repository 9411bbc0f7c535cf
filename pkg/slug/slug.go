// Package slug builds URL-safe identifiers from human titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 200

// Make folds s to lowercase ASCII and joins words with single dashes:
// "Crème Brûlée 101" becomes "creme-brulee-101". It returns "" when s has
// no letters or digits at all.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
		if b.Len() >= maxLen {
			break
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Unique returns base, or base with the first free "-N" suffix (N >= 2),
// as judged by exists.
func Unique(ctx context.Context, base string, exists func(ctx context.Context, slug string) (bool, error)) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty slug")
	}

	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
