package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultPDFTimeout    = 30 * time.Second
	defaultMaxConcurrent = 2
	mmPerInch            = 25.4
	footerMinMarginMM    = 10
)

// a4 is the paper size of every invoice, in millimeters
var a4 = struct{ width, height float64 }{210, 297}

// ChromedpConfig configures the headless Chrome PDF renderer
type ChromedpConfig struct {
	// Timeout bounds one render unless the request sets its own
	Timeout time.Duration
	// ExecPath is the Chrome binary; empty uses the chromedp lookup
	ExecPath string
	// RemoteURL attaches to a running browser's DevTools endpoint instead of launching one
	RemoteURL string
	// NoSandbox is needed when Chrome runs as root
	NoSandbox bool
	// Scale of the page content, 1.0 when zero
	Scale float64
	// MaxConcurrent caps simultaneous renders (tabs) in the shared browser
	MaxConcurrent int
	Logger        *zap.Logger
}

// ChromedpRenderer prints HTML to PDF through the Chrome DevTools Protocol.
// One browser process is shared; each render opens its own tab.
type ChromedpRenderer struct {
	config ChromedpConfig
	logger *zap.Logger
	slots  *semaphore.Weighted

	browser context.Context
	release context.CancelFunc
}

// NewChromedpRenderer prepares the browser allocator; Chrome starts on the first render
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	c := ChromedpConfig{}
	if cfg != nil {
		c = *cfg
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultPDFTimeout
	}
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		config: c,
		logger: c.Logger.Named("pdf"),
		slots:  semaphore.NewWeighted(int64(c.MaxConcurrent)),
	}
	if c.RemoteURL != "" {
		r.browser, r.release = chromedp.NewRemoteAllocator(context.Background(), c.RemoteURL)
	} else {
		r.browser, r.release = chromedp.NewExecAllocator(context.Background(), r.execOptions()...)
	}
	return r, nil
}

func (r *ChromedpRenderer) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if r.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ExecPath))
	}
	return opts
}

// Render prints req.HTML on A4 paper
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "nothing to render", nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "no renderer became free in time", err)
	}
	defer r.slots.Release(1)

	started := time.Now()
	tab, closeTab := chromedp.NewContext(r.browser, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	// Chrome must stop with the request, not only with the tab
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		loadDocument(wrapDocument(req)),
		r.setupFor(req).print(&pdf),
	)
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering took longer than %v", timeout), err)
	case ctx.Err() != nil:
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	default:
		r.logger.Error("Chrome failed to print document", zap.String("title", req.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "Chrome failed to print the document", err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "Chrome returned an empty PDF", nil)
	}

	result := &RenderResult{PDFData: pdf, PageCount: countPages(pdf), RenderDuration: time.Since(started)}
	r.logger.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration),
	)
	return result, nil
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.release != nil {
		r.release()
	}
	return nil
}

func loadDocument(doc string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
	})
}

// pageSetup holds print settings in inches, as the DevTools protocol expects
type pageSetup struct {
	width, height            float64
	top, right, bottom, left float64
	scale                    float64
	landscape                bool
	footer                   string
}

func (r *ChromedpRenderer) setupFor(req *RenderRequest) pageSetup {
	m := req.Margins
	if m == (Margins{}) {
		m = DefaultMargins()
	}
	if req.FooterHTML != "" && m.Bottom < footerMinMarginMM {
		m.Bottom = footerMinMarginMM
	}
	return pageSetup{
		width:     inches(a4.width),
		height:    inches(a4.height),
		top:       inches(float64(m.Top)),
		right:     inches(float64(m.Right)),
		bottom:    inches(float64(m.Bottom)),
		left:      inches(float64(m.Left)),
		scale:     r.config.Scale,
		landscape: req.Landscape,
		footer:    req.FooterHTML,
	}
}

func (s pageSetup) print(out *[]byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(s.width).
			WithPaperHeight(s.height).
			WithMarginTop(s.top).
			WithMarginRight(s.right).
			WithMarginBottom(s.bottom).
			WithMarginLeft(s.left).
			WithScale(s.scale).
			WithLandscape(s.landscape)
		if s.footer != "" {
			// An empty header keeps Chrome from printing its default one
			params = params.
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate("<span></span>").
				WithFooterTemplate(s.footer)
		}
		data, _, err := params.Do(ctx)
		*out = data
		return err
	})
}

// wrapDocument turns an HTML fragment into a full UTF-8 page; full pages pass through
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		b.WriteString("<title>" + html.EscapeString(req.Title) + "</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

func inches(mm float64) float64 {
	return mm / mmPerInch
}

// countPages counts /Type /Page objects, excluding the /Type /Pages tree root
func countPages(pdf []byte) int {
	n := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	return max(n, 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
