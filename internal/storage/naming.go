package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// ReportObjectPath derives the content-addressed object path of a final
// report: a slug of its title plus a short hash of the byte content. Two
// reports with the same title but different content never collide, and a
// retry of the identical upload maps to the same path.
func ReportObjectPath(title string, content []byte) string {
	sum := sha256.Sum256(content)
	return FolderInformes + "/" + Slugify(title) + "-" + hex.EncodeToString(sum[:4]) + ".pdf"
}

// Slugify lowercases, strips accents common in Spanish text, and collapses
// everything outside [a-z0-9] into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		r = stripAccent(r)
		switch {
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func stripAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'ä', 'â':
		return 'a'
	case 'é', 'è', 'ë', 'ê':
		return 'e'
	case 'í', 'ì', 'ï', 'î':
		return 'i'
	case 'ó', 'ò', 'ö', 'ô':
		return 'o'
	case 'ú', 'ù', 'ü', 'û':
		return 'u'
	case 'ñ':
		return 'n'
	}
	return r
}
