package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimrank/internal/extract"
	"github.com/ppiankov/claimrank/internal/model"
	"github.com/ppiankov/claimrank/internal/util"
	"github.com/ppiankov/claimrank/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc is overridden in tests
var fetchSleepFunc = time.Sleep

const fetchMaxAttempts = 3

// Fetcher retrieves document bodies for URL-backed documents
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker // nil skips robots.txt
	limiter    *worker.Limiter
	logger     *zap.Logger
}

// Options configures a Fetcher
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	MaxBodyBytes      int64
	RespectRobots     bool
	RequestsPerSecond float64 // Per host; zero is unlimited
	HTTPProxy         string
	HTTPSProxy        string
	NoProxy           string
	Logger            *zap.Logger
}

// OptionsFromConfig maps the fetch section of the configuration
func OptionsFromConfig(cfg model.FetchConfig) Options {
	return Options{
		Timeout:           cfg.Timeout,
		UserAgent:         cfg.UserAgent,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RespectRobots:     cfg.RespectRobots,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPProxy:         cfg.HTTPProxy,
		HTTPSProxy:        cfg.HTTPSProxy,
	}
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
		limiter:   worker.NewLimiter(opts.RequestsPerSecond, 1),
		logger:    opts.Logger,
	}
	if opts.RespectRobots {
		f.robots = NewRobotsChecker(opts.UserAgent, opts.Timeout, transport)
	}
	return f
}

// Page is a fetched document
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        string
}

// Text returns the page as plain text, stripping markup from HTML bodies
func (p *Page) Text() (string, error) {
	mediaType, _, _ := mime.ParseMediaType(p.ContentType)
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" || extract.LooksLikeHTML(p.Body) {
		return extract.VisibleText(p.Body)
	}
	return strings.TrimSpace(p.Body), nil
}

// statusError is a non-2xx response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Fetch retrieves rawURL once, honouring robots.txt and the host rate limit
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	host, err := worker.HostKey(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, host, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

// FetchWithRetry fetches rawURL, retrying 429 and 5xx responses with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Page, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxAttempts; attempt++ {
		page, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		var se *statusError
		if !errors.As(err, &se) || !se.retryable() || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxAttempts-1 {
			delay := time.Duration(1<<attempt) * time.Second
			f.logger.Warn("retrying document fetch",
				zap.String("url", rawURL),
				zap.Int("status", se.code),
				zap.Duration("backoff", delay),
			)
			fetchSleepFunc(delay)
		}
	}
	return nil, lastErr
}

// FetchText fetches rawURL and returns its plain text
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	page, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := page.Text()
	if err != nil {
		return "", fmt.Errorf("html to text: %w", err)
	}
	return text, nil
}
