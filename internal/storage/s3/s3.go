// Package s3 implements storage.Backend on an S3-compatible bucket using
// conditional writes (If-None-Match / If-Match).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/AssetStation/asset-station-library/internal/storage"
)

// API is the subset of *s3.Client used by the store.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config selects the bucket and how public URLs are formed.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	Prefix        string
	CatalogKey    string
	PublicBaseURL string
	UsePathStyle  bool
}

// Store keeps objects and the catalog in one bucket.
type Store struct {
	client API
	cfg    Config
	logger *slog.Logger
}

// New loads AWS credentials from the default chain and builds a Store.
func New(ctx context.Context, log *slog.Logger, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	if cfg.Region == "" {
		cfg.Region = awsCfg.Region
	}
	return NewWithClient(log, client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(log *slog.Logger, client API, cfg Config) *Store {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CatalogKey == "" {
		cfg.CatalogKey = "assets.json"
	}
	return &Store{
		client: client,
		cfg:    cfg,
		logger: log.With(slog.String("storage", "s3"), slog.String("bucket", cfg.Bucket)),
	}
}

// Name identifies the backend in logs.
func (s *Store) Name() string { return "s3" }

// Catalog returns the catalog object of the bucket.
func (s *Store) Catalog() storage.Document {
	return &objectDocument{store: s, key: storage.JoinKey(s.cfg.Prefix, s.cfg.CatalogKey)}
}

// Put uploads obj with If-None-Match: * so an existing key is never replaced.
func (s *Store) Put(ctx context.Context, obj storage.Object) (string, error) {
	name, err := storage.CleanName(obj.Name)
	if err != nil {
		return "", err
	}
	key := storage.JoinKey(s.cfg.Prefix, name)

	f, err := os.Open(obj.Path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		IfNoneMatch: aws.String("*"),
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return "", storage.ErrAlreadyExists
		}
		s.logger.Error("put object failed", slog.String("key", key), slog.Any("error", err))
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.Debug("object stored", slog.String("key", key))
	return s.publicURL(key), nil
}

func (s *Store) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return storage.JoinURL(s.cfg.PublicBaseURL, key)
	}
	if s.cfg.Endpoint != "" {
		return storage.JoinURL(strings.TrimRight(s.cfg.Endpoint, "/")+"/"+s.cfg.Bucket, key)
	}
	return storage.JoinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region), key)
}

// objectDocument is the catalog object, versioned by its ETag.
type objectDocument struct {
	store *Store
	key   string
}

func (d *objectDocument) Read(ctx context.Context) ([]byte, string, error) {
	out, err := d.store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.store.cfg.Bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", storage.ErrNotFound
		}
		return nil, "", fmt.Errorf("get catalog: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read catalog: %w", err)
	}
	return data, aws.ToString(out.ETag), nil
}

func (d *objectDocument) Write(ctx context.Context, data []byte, version, _ string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(d.store.cfg.Bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if version == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(version)
	}
	if _, err := d.store.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put catalog: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		return status == http.StatusPreconditionFailed || status == http.StatusConflict
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
