package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AssetStation/asset-station-library/internal/assets"
	"github.com/AssetStation/asset-station-library/internal/attachment"
	"github.com/AssetStation/asset-station-library/internal/catalog"
	"github.com/AssetStation/asset-station-library/internal/channel"
	"github.com/AssetStation/asset-station-library/internal/classify"
	"github.com/AssetStation/asset-station-library/internal/logger"
	"github.com/AssetStation/asset-station-library/internal/media"
)

// DefaultMaxUploadBytes is used when Config.MaxUploadBytes is zero.
const DefaultMaxUploadBytes int64 = 50 << 20

// Config tunes the pipeline.
type Config struct {
	MaxUploadBytes int64
	// ScratchDir is the parent of per-file temp dirs; empty means os.TempDir.
	ScratchDir string
}

// Pipeline ingests every attachment of a submission.
type Pipeline struct {
	cfg     Config
	thumbs  Thumbnailer
	uploads Uploader
	catalog Cataloger
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline wires the orchestrator.
func NewPipeline(log *slog.Logger, cfg Config, thumbs Thumbnailer, uploads Uploader, cat Cataloger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Pipeline{
		cfg:     cfg,
		thumbs:  thumbs,
		uploads: uploads,
		catalog: cat,
		logger:  log.With(slog.String("service", "ingest")),
		now:     time.Now,
	}
}

// HandleSubmission satisfies channel.Handler. Per-file failures are reported
// to the submitter and never returned.
func (p *Pipeline) HandleSubmission(ctx context.Context, sub channel.Submission) error {
	p.Process(ctx, sub)
	return nil
}

// Process ingests all attachments concurrently and returns one Result per
// attachment, in submission order.
func (p *Pipeline) Process(ctx context.Context, sub channel.Submission) []Result {
	results := make([]Result, len(sub.Attachments))
	var wg sync.WaitGroup
	for i, att := range sub.Attachments {
		wg.Add(1)
		go func(i int, att channel.Attachment) {
			defer wg.Done()
			results[i] = p.processFile(ctx, sub, att)
		}(i, att)
	}
	wg.Wait()
	return results
}

// run tracks one file through its stages.
type run struct {
	p      *Pipeline
	sub    channel.Submission
	att    channel.Attachment
	log    *slog.Logger
	status channel.StatusMessage
	result Result
}

func (p *Pipeline) processFile(ctx context.Context, sub channel.Submission, att channel.Attachment) (res Result) {
	ctx, log := logger.With(logger.WithContext(ctx, p.logger),
		slog.String("ingest_id", uuid.NewString()),
		slog.String("file", att.Name),
		slog.String("channel", sub.Channel.String()),
	)
	r := &run{p: p, sub: sub, att: att, log: log, result: Result{File: att.Name, Stage: StageReceived}}

	defer func() {
		if v := recover(); v != nil {
			log.Error("ingest panicked", slog.Any("panic", v), slog.String("stack", string(debug.Stack())))
			r.fail(ctx, fmt.Errorf("panic: %v", v), internalErrorMessage(att.Name))
			res = r.result
		}
	}()

	r.execute(ctx)
	return r.result
}

func (r *run) execute(ctx context.Context) {
	p := r.p
	if err := classify.CheckSize(r.att.Name, r.att.Size, p.cfg.MaxUploadBytes); err != nil {
		r.reject(ctx, err)
		return
	}
	r.advance(StageSizeChecked)

	parsed, err := classify.Classify(r.att.Name)
	if err != nil {
		r.reject(ctx, err)
		return
	}
	r.advance(StageClassified)
	r.result.StorageName = parsed.StorageName()
	r.log.Info("file accepted", slog.String("category", parsed.Category.String()), slog.String("storage_name", r.result.StorageName))

	if r.sub.Replier != nil {
		status, err := r.sub.Replier.Reply(ctx, processingMessage(parsed.Category))
		if err != nil {
			r.log.Warn("progress message failed", slog.Any("error", err))
		}
		r.status = status
	}

	scratch, err := os.MkdirTemp(p.cfg.ScratchDir, "ingest-*")
	if err != nil {
		r.fail(ctx, fmt.Errorf("create scratch dir: %w", err), internalErrorMessage(r.att.Name))
		return
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			r.log.Warn("scratch cleanup failed", slog.String("dir", scratch), slog.Any("error", err))
		}
	}()

	source := filepath.Join(scratch, "source"+parsed.Extension)
	if err := r.download(ctx, source); err != nil {
		var ve *classify.ValidationError
		if errors.As(err, &ve) {
			r.fail(ctx, err, RejectionMessage(err))
			return
		}
		r.fail(ctx, err, downloadFailedMessage(r.att.Name))
		return
	}

	thumb, err := p.thumbs.Generate(ctx, media.Request{
		Kind:       parsed.Kind,
		SourcePath: source,
		OutputPath: filepath.Join(scratch, "thumb.jpg"),
	})
	if err != nil {
		r.fail(ctx, err, thumbnailFailedMessage(parsed.Kind, err))
		return
	}
	r.advance(StageThumbnailGenerated)

	asset, err := p.uploads.Upload(ctx, assets.Upload{
		Name:        parsed.StorageName(),
		Path:        source,
		ContentType: media.ContentType(parsed.Extension),
	})
	if err != nil {
		r.fail(ctx, err, storageFailedMessage())
		return
	}
	r.result.StorageName = asset.Name
	r.result.URL = asset.URL
	r.advance(StageMainUploaded)

	switch {
	case thumb.Reuse:
		r.result.ThumbURL = asset.URL
	case thumb.Path != "":
		thumbAsset, err := p.uploads.Upload(ctx, assets.Upload{
			Name:        parsed.ThumbnailName(),
			Path:        thumb.Path,
			ContentType: "image/jpeg",
		})
		if err != nil {
			r.fail(ctx, err, storageFailedMessage())
			return
		}
		r.result.ThumbURL = thumbAsset.URL
	}
	r.advance(StageThumbnailUploaded)

	err = p.catalog.Append(ctx, catalog.Record{
		ID:          asset.Name,
		Name:        parsed.DisplayName,
		Category:    parsed.Category.String(),
		Description: parsed.Description,
		DownloadURL: r.result.URL,
		Thumb:       r.result.ThumbURL,
		Source:      r.sub.Author.Name(),
		Date:        p.now().UTC(),
	})
	if err != nil {
		r.fail(ctx, err, storageFailedMessage())
		return
	}
	r.advance(StageCatalogUpdated)

	r.finish(ctx, StageDone, nil, successMessage(parsed))
	r.log.Info("asset archived", slog.String("url", r.result.URL), slog.String("thumb", r.result.ThumbURL))
}

// download copies the attachment into path, enforcing the size limit on the
// actual byte count as well as the declared one.
func (r *run) download(ctx context.Context, path string) error {
	body, err := r.att.Open(ctx)
	if err != nil {
		return err
	}
	defer body.Close()
	spooled, err := attachment.Spool(body, path, r.p.cfg.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, attachment.ErrTooLarge) {
			return &classify.ValidationError{
				Reason:   classify.ReasonFileTooLarge,
				Filename: r.att.Name,
				Size:     r.p.cfg.MaxUploadBytes + 1,
				Limit:    r.p.cfg.MaxUploadBytes,
			}
		}
		return err
	}
	r.log.Debug("attachment spooled", slog.Int64("bytes", spooled.Size), slog.String("sha256", spooled.SHA256))
	return nil
}

func (r *run) advance(stage Stage) {
	r.result.Stage = stage
	r.log.Debug("stage reached", slog.String("stage", string(stage)))
}

func (r *run) reject(ctx context.Context, err error) {
	reason, _ := classify.ReasonOf(err)
	r.log.Info("file rejected", slog.String("reason", string(reason)))
	r.finish(ctx, StageRejected, err, RejectionMessage(err))
}

func (r *run) fail(ctx context.Context, err error, text string) {
	r.log.Error("ingest failed", slog.String("stage", string(r.result.Stage)), slog.Any("error", err))
	r.finish(ctx, StageFailed, err, text)
}

// finish records the terminal stage and reports it, editing the progress
// message when one was posted.
func (r *run) finish(ctx context.Context, stage Stage, err error, text string) {
	r.result.Last = r.result.Stage
	r.result.Stage = stage
	r.result.Err = err
	if r.status != nil {
		editErr := r.status.Edit(ctx, text)
		if editErr == nil {
			return
		}
		r.log.Warn("status edit failed", slog.Any("error", editErr))
	}
	if r.sub.Replier == nil {
		return
	}
	if _, replyErr := r.sub.Replier.Reply(ctx, text); replyErr != nil {
		r.log.Warn("reply failed", slog.Any("error", replyErr))
	}
}
