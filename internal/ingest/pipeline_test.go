package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssetStation/asset-station-library/internal/assets"
	"github.com/AssetStation/asset-station-library/internal/catalog"
	"github.com/AssetStation/asset-station-library/internal/channel"
	"github.com/AssetStation/asset-station-library/internal/classify"
	"github.com/AssetStation/asset-station-library/internal/media"
	"github.com/AssetStation/asset-station-library/internal/storage/filesystem"
)

type fakeStatus struct {
	replier *fakeReplier
}

func (s *fakeStatus) Edit(_ context.Context, text string) error {
	s.replier.mu.Lock()
	defer s.replier.mu.Unlock()
	s.replier.edits = append(s.replier.edits, text)
	return nil
}

type fakeReplier struct {
	mu      sync.Mutex
	replies []string
	edits   []string
}

func (r *fakeReplier) Reply(_ context.Context, text string) (channel.StatusMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return &fakeStatus{replier: r}, nil
}

type fakeThumbs struct {
	mu       sync.Mutex
	requests []media.Request
	err      error
}

func (f *fakeThumbs) Generate(_ context.Context, req media.Request) (media.Thumbnail, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return media.Thumbnail{}, f.err
	}
	switch req.Kind {
	case media.KindImage:
		return media.Thumbnail{Reuse: true}, nil
	case media.KindVideo, media.KindModel:
		if err := os.WriteFile(req.OutputPath, []byte("jpeg"), 0o644); err != nil {
			return media.Thumbnail{}, err
		}
		return media.Thumbnail{Path: req.OutputPath}, nil
	default:
		return media.Thumbnail{}, nil
	}
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []assets.Upload
	bodies  map[string]string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, u assets.Upload) (assets.Stored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return assets.Stored{}, f.err
	}
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return assets.Stored{}, err
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[u.Name] = string(data)
	f.uploads = append(f.uploads, u)
	return assets.Stored{Name: u.Name, URL: "https://cdn.example.com/" + u.Name}, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	records []catalog.Record
	err     error
}

func (f *fakeCatalog) Append(_ context.Context, rec catalog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type harness struct {
	pipeline *Pipeline
	thumbs   *fakeThumbs
	uploads  *fakeUploader
	catalog  *fakeCatalog
	replier  *fakeReplier
	scratch  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		thumbs:  &fakeThumbs{},
		uploads: &fakeUploader{},
		catalog: &fakeCatalog{},
		replier: &fakeReplier{},
		scratch: t.TempDir(),
	}
	h.pipeline = NewPipeline(nil, Config{MaxUploadBytes: 1 << 20, ScratchDir: h.scratch}, h.thumbs, h.uploads, h.catalog)
	h.pipeline.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }
	return h
}

func file(name, body string) channel.Attachment {
	return channel.Attachment{
		Name: name,
		Size: int64(len(body)),
		Opener: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func (h *harness) submit(atts ...channel.Attachment) []Result {
	return h.pipeline.Process(context.Background(), channel.Submission{
		Channel:     channel.Discord,
		ChannelID:   "42",
		Author:      channel.Identity{ID: "7", Username: "mira"},
		Attachments: atts,
		Replier:     h.replier,
	})
}

func (h *harness) assertScratchEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImageReusesMainAsThumbnail(t *testing.T) {
	h := newHarness(t)

	results := h.submit(file("StockPhotos_Sunset-Beach.jpg", "jpg-bytes"))

	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, StageDone, res.Stage)
	assert.True(t, res.Stage.Terminal())
	assert.False(t, res.Last.Terminal())
	assert.Equal(t, "StockPhotos_Sunset-Beach.jpg", res.StorageName)
	assert.Equal(t, res.URL, res.ThumbURL)

	require.Len(t, h.uploads.uploads, 1)
	assert.Equal(t, "image/jpeg", h.uploads.uploads[0].ContentType)
	assert.Equal(t, "jpg-bytes", h.uploads.bodies["StockPhotos_Sunset-Beach.jpg"])

	require.Len(t, h.catalog.records, 1)
	rec := h.catalog.records[0]
	assert.Equal(t, "Sunset-Beach", rec.Name)
	assert.Equal(t, "StockPhotos", rec.Category)
	assert.Equal(t, "StockPhotos_Sunset-Beach.jpg", rec.ID)
	assert.Equal(t, "https://cdn.example.com/StockPhotos_Sunset-Beach.jpg", rec.Thumb)
	assert.Equal(t, "mira", rec.Source)
	assert.Equal(t, time.UTC, rec.Date.Location())

	assert.Equal(t, []string{"⏳ **Processing StockPhotos...**"}, h.replier.replies)
	require.Len(t, h.replier.edits, 1)
	assert.Contains(t, h.replier.edits[0], "✅ **Asset Archived!**")
	assert.Contains(t, h.replier.edits[0], "**Name:** Sunset-Beach")
	h.assertScratchEmpty(t)
}

func TestVideoUploadsGeneratedThumbnail(t *testing.T) {
	h := newHarness(t)

	res := h.submit(file("Video_Intro City night.mp4", "mp4"))[0]

	require.NoError(t, res.Err)
	assert.Equal(t, StageDone, res.Stage)
	require.Len(t, h.uploads.uploads, 2)
	assert.Equal(t, "Video_Intro_City_night.mp4", h.uploads.uploads[0].Name)
	assert.Equal(t, "video/mp4", h.uploads.uploads[0].ContentType)
	assert.Equal(t, "Video_Intro_City_night_thumb.jpg", h.uploads.uploads[1].Name)
	assert.Equal(t, "jpeg", h.uploads.bodies["Video_Intro_City_night_thumb.jpg"])

	rec := h.catalog.records[0]
	assert.Equal(t, "City_night", rec.Description)
	assert.Equal(t, res.ThumbURL, rec.Thumb)
	assert.NotEqual(t, rec.DownloadURL, rec.Thumb)
	h.assertScratchEmpty(t)
}

func TestModelIsRenderedFromSpooledPayload(t *testing.T) {
	h := newHarness(t)

	res := h.submit(file("3D_Laptop.glb", "glTF"))[0]

	require.NoError(t, res.Err)
	require.Len(t, h.thumbs.requests, 1)
	req := h.thumbs.requests[0]
	assert.Equal(t, media.KindModel, req.Kind)
	assert.True(t, strings.HasSuffix(req.SourcePath, ".glb"))
	assert.Equal(t, "model/gltf-binary", h.uploads.uploads[0].ContentType)
	assert.Equal(t, "3D_Laptop_thumb.jpg", h.uploads.uploads[1].Name)
}

func TestMalformedNameRejectedBeforeIO(t *testing.T) {
	h := newHarness(t)
	opened := false
	att := file("model.glb", "x")
	att.Opener = func(context.Context) (io.ReadCloser, error) {
		opened = true
		return nil, errors.New("unexpected")
	}

	res := h.submit(att)[0]

	assert.Equal(t, StageRejected, res.Stage)
	assert.Equal(t, StageSizeChecked, res.Last)
	assert.ErrorIs(t, res.Err, &classify.ValidationError{Reason: classify.ReasonMalformedName})
	assert.False(t, opened)
	assert.Empty(t, h.thumbs.requests)
	assert.Empty(t, h.uploads.uploads)
	assert.Empty(t, h.catalog.records)
	require.Len(t, h.replier.replies, 1)
	assert.Contains(t, h.replier.replies[0], "Naming Format Incorrect")
	assert.Empty(t, h.replier.edits)
}

func TestRejectionReplies(t *testing.T) {
	cases := []struct {
		name   string
		reason classify.Reason
		want   string
	}{
		{"Icon_Star.exe", classify.ReasonUnsupportedExtension, "Invalid File Extension"},
		{"3D_Chair.fbx", classify.ReasonUnsupportedThreeDFormat, "Invalid 3D Format"},
		{"Furniture_Chair.png", classify.ReasonUnknownCategory, classify.CategoryList()},
		{"Icon_St@r!.png", classify.ReasonInvalidCharacters, "@, !"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			res := h.submit(file(tc.name, "x"))[0]

			assert.Equal(t, StageRejected, res.Stage)
			reason, ok := classify.ReasonOf(res.Err)
			require.True(t, ok)
			assert.Equal(t, tc.reason, reason)
			require.Len(t, h.replier.replies, 1)
			assert.Contains(t, h.replier.replies[0], tc.want)
			assert.Empty(t, h.uploads.uploads)
		})
	}
}

func TestDeclaredSizeOverLimitRejected(t *testing.T) {
	h := newHarness(t)
	att := file("Video_Huge.mp4", "x")
	att.Size = 2 << 20

	res := h.submit(att)[0]

	assert.Equal(t, StageRejected, res.Stage)
	assert.Equal(t, StageReceived, res.Last)
	require.Len(t, h.replier.replies, 1)
	assert.Contains(t, h.replier.replies[0], "File Too Big")
	assert.Contains(t, h.replier.replies[0], "1MiB")
}

func TestActualSizeOverLimitFails(t *testing.T) {
	h := newHarness(t)
	att := file("Video_Liar.mp4", strings.Repeat("x", 2<<20))
	att.Size = 10

	res := h.submit(att)[0]

	assert.Equal(t, StageFailed, res.Stage)
	assert.ErrorIs(t, res.Err, &classify.ValidationError{Reason: classify.ReasonFileTooLarge})
	assert.Empty(t, h.uploads.uploads)
	require.Len(t, h.replier.edits, 1)
	assert.Contains(t, h.replier.edits[0], "File Too Big")
	h.assertScratchEmpty(t)
}

func TestThumbnailFailurePersistsNothing(t *testing.T) {
	h := newHarness(t)
	h.thumbs.err = &media.ProcessingError{Op: "ffmpeg", Err: errors.New("exit status 1"), Output: "moov atom not found"}

	res := h.submit(file("Video_Broken.mp4", "x"))[0]

	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, StageClassified, res.Last)
	assert.Empty(t, h.uploads.uploads)
	assert.Empty(t, h.catalog.records)
	assert.Equal(t, []string{"❌ Thumbnail Error: moov atom not found"}, h.replier.edits)
	h.assertScratchEmpty(t)
}

func TestRenderTimeoutMessage(t *testing.T) {
	h := newHarness(t)
	h.thumbs.err = &media.ProcessingError{Op: "render", Err: media.ErrRenderTimeout}

	h.submit(file("3D_Tree.glb", "x"))

	require.Len(t, h.replier.edits, 1)
	assert.Contains(t, h.replier.edits[0], "3D Thumbnail Render Error")
	assert.Contains(t, h.replier.edits[0], media.ErrRenderTimeout.Error())
}

func TestStorageFailureReportedGenerically(t *testing.T) {
	h := newHarness(t)
	h.uploads.err = errors.New("502 bad gateway from upstream")

	res := h.submit(file("Icon_Star.png", "x"))[0]

	assert.Equal(t, StageFailed, res.Stage)
	assert.Empty(t, h.catalog.records)
	require.Len(t, h.replier.edits, 1)
	assert.Equal(t, storageFailedMessage(), h.replier.edits[0])
	assert.NotContains(t, h.replier.edits[0], "502")
}

func TestCatalogFailureLeavesOrphanUpload(t *testing.T) {
	h := newHarness(t)
	h.catalog.err = catalog.ErrConflict

	res := h.submit(file("Icon_Star.png", "x"))[0]

	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, StageThumbnailUploaded, res.Last)
	assert.ErrorIs(t, res.Err, catalog.ErrConflict)
	assert.Len(t, h.uploads.uploads, 1)
	assert.Equal(t, []string{storageFailedMessage()}, h.replier.edits)
}

func TestPanicIsolatedToOneFile(t *testing.T) {
	h := newHarness(t)
	bad := file("Icon_Boom.png", "x")
	bad.Opener = func(context.Context) (io.ReadCloser, error) { panic("boom") }

	results := h.submit(bad, file("Icon_Star.png", "png"))

	require.Len(t, results, 2)
	assert.Equal(t, StageFailed, results[0].Stage)
	assert.ErrorContains(t, results[0].Err, "boom")
	assert.Equal(t, StageDone, results[1].Stage)
	require.Len(t, h.catalog.records, 1)
	assert.Equal(t, "Icon_Star.png", h.catalog.records[0].ID)
	h.assertScratchEmpty(t)
}

func TestHandleSubmissionNeverFails(t *testing.T) {
	h := newHarness(t)
	h.uploads.err = errors.New("down")

	err := h.pipeline.HandleSubmission(context.Background(), channel.Submission{
		Attachments: []channel.Attachment{file("Icon_Star.png", "x")},
		Replier:     h.replier,
	})

	assert.NoError(t, err)
}

func TestCollidingUploadsGetDistinctCatalogIDs(t *testing.T) {
	h := newHarness(t)
	store, err := filesystem.New(nil, filesystem.Config{Root: t.TempDir(), BaseURL: "https://x"})
	require.NoError(t, err)
	h.pipeline = NewPipeline(nil, Config{MaxUploadBytes: 1 << 20, ScratchDir: h.scratch}, h.thumbs, assets.NewService(nil, store), h.catalog)

	first := h.submit(file("Icon_Star.png", "first"))[0]
	second := h.submit(file("Icon_Star.png", "second"))[0]

	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	require.Len(t, h.catalog.records, 2)
	firstRec, secondRec := h.catalog.records[0], h.catalog.records[1]
	assert.Equal(t, "Icon_Star.png", firstRec.ID)
	assert.NotEqual(t, firstRec.ID, secondRec.ID)
	assert.Regexp(t, `^Icon_Star_\d+\.png$`, secondRec.ID)
	assert.Equal(t, "https://x/"+secondRec.ID, secondRec.DownloadURL)
	assert.Equal(t, secondRec.ID, second.StorageName)
	assert.NotEqual(t, firstRec.DownloadURL, secondRec.DownloadURL)
}
