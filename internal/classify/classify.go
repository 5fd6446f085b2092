// Package classify turns a submitted filename into a category, a display
// name and the storage filename that encodes them, or rejects it.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AssetStation/asset-station-library/internal/media"
)

// ThumbnailSuffix is appended to BaseName for generated preview images.
const ThumbnailSuffix = "_thumb.jpg"

var allowedExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".webm": {},
	".mp3": {}, ".wav": {}, ".aac": {},
	".svg": {},
	".glb": {}, ".obj": {}, ".fbx": {}, ".gltf": {},
}

// PREFIX (space|_) CORE ((space|_) DESCRIPTION)?. CORE is greedy, so it keeps
// underscores and DESCRIPTION begins at the first whitespace after it.
var namePattern = regexp.MustCompile(`^([A-Za-z0-9]+)[ _](\S+)(?:[ _](.+))?$`)

var whitespace = regexp.MustCompile(`\s+`)

// Result is a fully resolved filename.
type Result struct {
	Filename    string
	CategoryKey string
	Category    Category
	Core        string
	Description string
	Extension   string
	Kind        media.Kind
	DisplayName string
	// BaseName is "{Category}_{Core}" with "_{Description}" when present.
	BaseName string
}

// StorageName is the object name for the main asset.
func (r Result) StorageName() string {
	return r.BaseName + r.Extension
}

// ThumbnailName is the object name for a generated preview.
func (r Result) ThumbnailName() string {
	return r.BaseName + ThumbnailSuffix
}

// CheckSize rejects payloads above limit. It runs before any parsing.
func CheckSize(filename string, size, limit int64) error {
	if limit > 0 && size > limit {
		return &ValidationError{
			Reason:   ReasonFileTooLarge,
			Filename: filename,
			Size:     size,
			Limit:    limit,
		}
	}
	return nil
}

// Classify validates filename and resolves it. On failure the returned error
// is a *ValidationError and the Result is zero.
func Classify(filename string) (Result, error) {
	rawExt := filepath.Ext(filename)
	ext := strings.ToLower(rawExt)
	if _, ok := allowedExtensions[ext]; !ok {
		return Result{}, &ValidationError{Reason: ReasonUnsupportedExtension, Filename: filename, Extension: ext}
	}

	stem := strings.TrimSuffix(filename, rawExt)
	match := namePattern.FindStringSubmatch(stem)
	if match == nil {
		return Result{}, &ValidationError{Reason: ReasonMalformedName, Filename: filename, Extension: ext}
	}
	prefix, core, desc := match[1], match[2], match[3]

	category, ok := ResolveCategory(prefix)
	if !ok {
		return Result{}, &ValidationError{Reason: ReasonUnknownCategory, Filename: filename, Prefix: prefix}
	}

	if bad := invalidCharacters(core); len(bad) > 0 {
		return Result{}, &ValidationError{Reason: ReasonInvalidCharacters, Filename: filename, Characters: bad}
	}

	if category == Category3D && ext != media.ModelExtension {
		return Result{}, &ValidationError{Reason: ReasonUnsupportedThreeDFormat, Filename: filename, Extension: ext}
	}

	desc = whitespace.ReplaceAllString(strings.TrimSpace(desc), "_")
	base := string(category) + "_" + core
	if desc != "" {
		base += "_" + desc
	}

	return Result{
		Filename:    filename,
		CategoryKey: prefix,
		Category:    category,
		Core:        core,
		Description: desc,
		Extension:   ext,
		Kind:        media.KindForExtension(ext),
		DisplayName: strings.ReplaceAll(core, "_", " "),
		BaseName:    base,
	}, nil
}

// invalidCharacters returns each disallowed character once, in order of first appearance.
func invalidCharacters(s string) []string {
	seen := map[rune]bool{}
	var out []string
	for _, r := range s {
		if isNameRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}
	return out
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	default:
		return false
	}
}
