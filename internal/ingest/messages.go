package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docker/go-units"

	"github.com/AssetStation/asset-station-library/internal/classify"
	"github.com/AssetStation/asset-station-library/internal/media"
)

// Replies are written in Discord markdown; other platforms convert it.

func processingMessage(category classify.Category) string {
	return fmt.Sprintf("⏳ **Processing %s...**", category)
}

func successMessage(res classify.Result) string {
	return fmt.Sprintf("✅ **Asset Archived!**\n📂 **Category:** %s\n🏷️ **Name:** %s", res.Category, res.DisplayName)
}

// RejectionMessage explains a validation failure to the submitter.
func RejectionMessage(err error) string {
	var ve *classify.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Sprintf("🚫 **File Rejected:** %v", err)
	}
	switch ve.Reason {
	case classify.ReasonFileTooLarge:
		return fmt.Sprintf("⚠️ **File Too Big!** (%s)\nMaximum size is %s.", ve.Filename, units.BytesSize(float64(ve.Limit)))
	case classify.ReasonUnsupportedExtension:
		return fmt.Sprintf("🚫 **Invalid File Extension:** `%s`", ve.Filename)
	case classify.ReasonMalformedName:
		return fmt.Sprintf("⚠️ **Naming Format Incorrect for:** `%s`\n"+
			"**Correct:** `Category Name.ext` or `Category_Name.ext`\n"+
			"**Example:** `3D_Laptop.glb` or `Texture Wood-Dark.jpg`", ve.Filename)
	case classify.ReasonUnknownCategory:
		return fmt.Sprintf("🚫 **Unknown Category: \"%s\"**\nPlease start your filename with one of these: %s", ve.Prefix, classify.CategoryList())
	case classify.ReasonInvalidCharacters:
		return fmt.Sprintf("❌ **Invalid Characters Detected**\n"+
			"Your filename contains restricted symbols: %s\n"+
			"Please use only Letters, Numbers, Hyphens (-), or Underscores (_)", strings.Join(ve.Characters, ", "))
	case classify.ReasonUnsupportedThreeDFormat:
		return fmt.Sprintf("🚫 **Invalid 3D Format!**\nYou uploaded `%s`.\n"+
			"For best performance in After Effects, we **only** accept **%s** files for 3D models.\n\n"+
			"Please convert it and try again.", ve.Filename, media.ModelExtension)
	default:
		return fmt.Sprintf("🚫 **File Rejected:** `%s`", ve.Filename)
	}
}

func thumbnailFailedMessage(kind media.Kind, err error) string {
	if kind == media.KindModel {
		if errors.Is(err, media.ErrRenderTimeout) {
			return "❌ 3D Thumbnail Render Error: " + media.ErrRenderTimeout.Error()
		}
		return "❌ 3D Thumbnail Render Error: " + causeOf(err)
	}
	return "❌ Thumbnail Error: " + causeOf(err)
}

// causeOf prefers the tool output over the wrapped exit status.
func causeOf(err error) string {
	var perr *media.ProcessingError
	if errors.As(err, &perr) {
		if out := strings.TrimSpace(perr.Output); out != "" {
			return out
		}
		return perr.Err.Error()
	}
	return err.Error()
}

func downloadFailedMessage(name string) string {
	return fmt.Sprintf("❌ **Download Failed:** could not fetch `%s` from the channel. Please try again.", name)
}

func storageFailedMessage() string {
	return "❌ **Upload Failed:** the asset could not be archived right now. Please try again later."
}

func internalErrorMessage(name string) string {
	return fmt.Sprintf("❌ **Unexpected Error** while processing `%s`.", name)
}
