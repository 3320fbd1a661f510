package catalog

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// Fixed classification for every injected entry.
const (
	CustomCategory    = "com.dixieflatline76.spicelock.category"
	CustomSubcategory = "com.dixieflatline76.spicelock.subcategory.custom"
)

// EntryParams carries what NewEntry needs to build a catalog entry.
type EntryParams struct {
	ID            string
	DisplayName   string
	VideoPath     string
	ThumbnailPath string
}

// NewEntry builds the catalog entry for an injected asset.
func NewEntry(p EntryParams) Entry {
	return Entry{
		ID:                 p.ID,
		AccessibilityLabel: p.DisplayName,
		LocalizedNameKey:   p.DisplayName,
		ShotID:             ShotID(p.DisplayName),
		IncludeInShuffle:   true,
		ShowInTopLevel:     true,
		PreferredOrder:     0,
		Categories:         []string{CustomCategory},
		Subcategories:      []string{CustomSubcategory},
		PointsOfInterest:   map[string]string{},
		VideoURL:           FileURL(p.VideoPath),
		PreviewImageURL:    FileURL(p.ThumbnailPath),
	}
}

// ShotID derives the agent's pseudo identifier from a display name. Letters
// are upper-cased, each whitespace character becomes an underscore, and
// anything that is not a letter, digit or underscore is dropped.
func ShotID(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FileURL returns the file:// URL of an absolute path. Empty input yields "".
func FileURL(path string) string {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// DirURLPrefix returns the URL prefix shared by every file directly under dir.
func DirURLPrefix(dir string) string {
	return strings.TrimSuffix(FileURL(dir), "/") + "/"
}
