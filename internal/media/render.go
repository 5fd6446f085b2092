package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const visibleProbe = `(() => {
	const mv = document.querySelector('model-viewer');
	return !!(mv && mv.modelIsVisible);
})()`

var viewerPage = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<script type="module" src="{{.ViewerURL}}"></script>
<style>body { margin: 0; background: #222; } model-viewer { width: {{.Size}}px; height: {{.Size}}px; }</style>
</head>
<body>
<model-viewer src="{{.Model}}" auto-rotate camera-controls exposure="1" environment-image="neutral" shadow-intensity="1"></model-viewer>
</body>
</html>
`))

// ChromeRenderer renders binary glTF models in headless Chrome through the
// model-viewer web component. Every render launches and closes its own browser.
type ChromeRenderer struct {
	ExecPath  string
	ViewerURL string
	Viewport  int
	Timeout   time.Duration
	Settle    time.Duration
	Quality   int
	Logger    *slog.Logger
}

// Page returns the HTML document that displays model.
func (r ChromeRenderer) Page(model []byte) (string, error) {
	var buf bytes.Buffer
	err := viewerPage.Execute(&buf, struct {
		ViewerURL string
		Size      int
		Model     template.URL
	}{
		ViewerURL: r.ViewerURL,
		Size:      r.Viewport,
		Model:     template.URL("data:model/gltf-binary;base64," + base64.StdEncoding.EncodeToString(model)),
	})
	if err != nil {
		return "", fmt.Errorf("render viewer page: %w", err)
	}
	return buf.String(), nil
}

// Render loads model into the viewer, waits until it is visible and writes a
// JPEG screenshot to dst.
func (r ChromeRenderer) Render(ctx context.Context, model []byte, dst string) error {
	html, err := r.Page(model)
	if err != nil {
		return err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("enable-webgl", true),
		chromedp.WindowSize(r.Viewport, r.Viewport),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.logf))
	defer cancelTab()

	var (
		visible bool
		shot    []byte
	)
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(r.Viewport), int64(r.Viewport)),
		chromedp.Navigate("about:blank"),
		setDocumentContent(html),
		chromedp.Poll(visibleProbe, &visible, chromedp.WithPollingTimeout(r.Timeout)),
		chromedp.Sleep(r.Settle),
		chromedp.FullScreenshot(&shot, r.Quality),
	)
	if err != nil {
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return &ProcessingError{Op: "render", Err: ErrRenderTimeout}
		}
		return &ProcessingError{Op: "render", Err: err}
	}
	if len(shot) == 0 {
		return &ProcessingError{Op: "render", Err: errors.New("empty screenshot")}
	}
	if err := os.WriteFile(dst, shot, 0o644); err != nil {
		return fmt.Errorf("write render: %w", err)
	}
	return nil
}

func (r ChromeRenderer) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "chromedp"))
	}
}

func setDocumentContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}
