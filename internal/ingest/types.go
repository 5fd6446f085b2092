// Package ingest runs submitted files through classification, thumbnail
// generation, upload and catalog update.
package ingest

import (
	"context"

	"github.com/AssetStation/asset-station-library/internal/assets"
	"github.com/AssetStation/asset-station-library/internal/catalog"
	"github.com/AssetStation/asset-station-library/internal/media"
)

// Stage is the furthest point a file reached. Rejected and Failed are terminal.
type Stage string

const (
	StageReceived           Stage = "received"
	StageSizeChecked        Stage = "size_checked"
	StageClassified         Stage = "classified"
	StageThumbnailGenerated Stage = "thumbnail_generated"
	StageMainUploaded       Stage = "main_uploaded"
	StageThumbnailUploaded  Stage = "thumbnail_uploaded"
	StageCatalogUpdated     Stage = "catalog_updated"
	StageDone               Stage = "done"
	StageRejected           Stage = "rejected"
	StageFailed             Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageRejected || s == StageFailed
}

// Result is the outcome of one attachment.
type Result struct {
	File string

	// Stage is terminal; Last is the stage reached before failing.
	Stage Stage
	Last  Stage
	Err   error

	// StorageName is the name the main asset was stored under, which is
	// also its catalog id.
	StorageName string
	URL         string
	ThumbURL    string
}

// Thumbnailer derives preview images.
type Thumbnailer interface {
	Generate(ctx context.Context, req media.Request) (media.Thumbnail, error)
}

// Uploader persists binaries.
type Uploader interface {
	Upload(ctx context.Context, u assets.Upload) (assets.Stored, error)
}

// Cataloger records archived assets.
type Cataloger interface {
	Append(ctx context.Context, rec catalog.Record) error
}
