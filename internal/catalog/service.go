package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AssetStation/asset-station-library/internal/storage"
)

// DefaultMaxAttempts bounds the read-modify-write loop.
const DefaultMaxAttempts = 3

// ErrConflict is returned when every attempt lost against a concurrent writer.
var ErrConflict = errors.New("catalog: too many concurrent updates")

// Service appends records to the catalog document.
type Service struct {
	doc         storage.Document
	maxAttempts int
	logger      *slog.Logger
}

// NewService creates a catalog service over doc. maxAttempts <= 0 uses the default.
func NewService(log *slog.Logger, doc storage.Document, maxAttempts int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Service{
		doc:         doc,
		maxAttempts: maxAttempts,
		logger:      log.With(slog.String("service", "catalog")),
	}
}

// Append prepends rec to the catalog. Each attempt re-reads the document so
// that entries written concurrently are preserved.
func (s *Service) Append(ctx context.Context, rec Record) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		records, version, err := s.read(ctx)
		if err != nil {
			return err
		}
		updated := make([]Record, 0, len(records)+1)
		updated = append(updated, rec)
		updated = append(updated, records...)

		data, err := encode(updated)
		if err != nil {
			return err
		}
		err = s.doc.Write(ctx, data, version, "Add "+rec.ID)
		if err == nil {
			s.logger.Info("catalog updated", slog.String("id", rec.ID), slog.Int("entries", len(updated)), slog.Int("attempt", attempt))
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("write catalog: %w", err)
		}
		s.logger.Warn("catalog write conflict", slog.String("id", rec.ID), slog.Int("attempt", attempt))
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrConflict
}

// List returns the catalog newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, _, err := s.read(ctx)
	return records, err
}

func (s *Service) read(ctx context.Context) ([]Record, string, error) {
	data, version, err := s.doc.Read(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("read catalog: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, version, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, "", fmt.Errorf("decode catalog: %w", err)
	}
	return records, version, nil
}

func encode(records []Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}
