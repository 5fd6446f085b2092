package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AssetStation/asset-station-library/internal/media"
)

// Reason identifies why a submitted filename was rejected.
type Reason string

const (
	ReasonUnsupportedExtension    Reason = "unsupported_extension"
	ReasonMalformedName           Reason = "malformed_name"
	ReasonUnknownCategory         Reason = "unknown_category"
	ReasonInvalidCharacters       Reason = "invalid_characters"
	ReasonUnsupportedThreeDFormat Reason = "unsupported_3d_format"
	ReasonFileTooLarge            Reason = "file_too_large"
)

// ValidationError is returned for every rejected submission. Only the fields
// relevant to Reason are populated.
type ValidationError struct {
	Reason     Reason
	Filename   string
	Extension  string
	Prefix     string
	Characters []string
	Size       int64
	Limit      int64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonUnsupportedExtension:
		return fmt.Sprintf("%s: unsupported extension %q", e.Filename, e.Extension)
	case ReasonMalformedName:
		return fmt.Sprintf("%s: name does not match CATEGORY_NAME[_DESCRIPTION]", e.Filename)
	case ReasonUnknownCategory:
		return fmt.Sprintf("%s: unknown category %q (valid: %s)", e.Filename, e.Prefix, CategoryList())
	case ReasonInvalidCharacters:
		return fmt.Sprintf("%s: invalid characters %s", e.Filename, strings.Join(e.Characters, ", "))
	case ReasonUnsupportedThreeDFormat:
		return fmt.Sprintf("%s: 3D models must be %s, got %q", e.Filename, media.ModelExtension, e.Extension)
	case ReasonFileTooLarge:
		return fmt.Sprintf("%s: %d bytes exceeds limit of %d", e.Filename, e.Size, e.Limit)
	default:
		return fmt.Sprintf("%s: rejected (%s)", e.Filename, e.Reason)
	}
}

// Is lets errors.Is match on a bare &ValidationError{Reason: r}.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Filename == "" || t.Filename == e.Filename)
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
