package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// FrameExtractor writes a still frame of the video at src to dst as JPEG.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, src, dst string) error
}

// ModelRenderer renders a binary glTF model to a JPEG at dst.
type ModelRenderer interface {
	Render(ctx context.Context, model []byte, dst string) error
}

// Request describes one thumbnail to derive. Payload, when set, is the
// content of SourcePath already held in memory.
type Request struct {
	Kind       Kind
	SourcePath string
	Payload    []byte
	OutputPath string
}

// Thumbnail is the outcome of Generate. Reuse means the main asset serves
// as its own thumbnail; an empty Path without Reuse means there is none.
type Thumbnail struct {
	Path  string
	Reuse bool
}

// None reports whether no thumbnail exists for the asset.
func (t Thumbnail) None() bool { return t.Path == "" && !t.Reuse }

// Generator picks the thumbnail strategy for a media kind.
type Generator struct {
	frames   FrameExtractor
	renderer ModelRenderer
	logger   *slog.Logger
}

// NewGenerator creates a thumbnail generator.
func NewGenerator(log *slog.Logger, frames FrameExtractor, renderer ModelRenderer) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		frames:   frames,
		renderer: renderer,
		logger:   log.With(slog.String("service", "media")),
	}
}

// Generate derives the thumbnail for req. Errors are fatal to the asset.
func (g *Generator) Generate(ctx context.Context, req Request) (Thumbnail, error) {
	switch req.Kind {
	case KindImage:
		return Thumbnail{Reuse: true}, nil
	case KindVideo:
		if g.frames == nil {
			return Thumbnail{}, errors.New("video frame extractor not configured")
		}
		start := time.Now()
		if err := g.frames.ExtractFrame(ctx, req.SourcePath, req.OutputPath); err != nil {
			g.logger.Error("frame extraction failed", slog.String("source", req.SourcePath), slog.Any("error", err))
			return Thumbnail{}, err
		}
		g.logger.Debug("frame extracted", slog.Duration("took", time.Since(start)))
		return Thumbnail{Path: req.OutputPath}, nil
	case KindModel:
		if g.renderer == nil {
			return Thumbnail{}, errors.New("3D renderer not configured")
		}
		payload := req.Payload
		if payload == nil {
			data, err := os.ReadFile(req.SourcePath)
			if err != nil {
				return Thumbnail{}, fmt.Errorf("read model: %w", err)
			}
			payload = data
		}
		start := time.Now()
		if err := g.renderer.Render(ctx, payload, req.OutputPath); err != nil {
			g.logger.Error("model render failed", slog.Any("error", err))
			return Thumbnail{}, err
		}
		g.logger.Debug("model rendered", slog.Duration("took", time.Since(start)))
		return Thumbnail{Path: req.OutputPath}, nil
	default:
		return Thumbnail{}, nil
	}
}
