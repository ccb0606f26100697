// Package ingest acquires document text from local files, HTTP(S), FTP, or
// stdin and normalizes it to UTF-8 before it reaches the extraction engine.
package ingest

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridian-legal/extract-cli/internal/resilience"
)

// StdinSource selects standard input as the document source.
const StdinSource = "-"

// Options configures the Reader.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxSizeBytes   int64
	RequestsPerSec float64
	Retries        int
	FTPUser        string
	FTPPassword    string
}

// Reader acquires document text from a source string. Safe for concurrent use.
type Reader struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter

	// stdin is swappable for tests.
	stdin io.Reader
}

// New creates a Reader with the given options, applying defaults for any
// zero-valued field.
func New(opts Options) *Reader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxSizeBytes == 0 {
		opts.MaxSizeBytes = 10 << 20
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 4
	}
	if opts.Retries == 0 {
		opts.Retries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "extract-cli/1.0"
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Reader{
		opts: opts,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		stdin:   os.Stdin,
	}
}

// Read resolves the source and returns the document text as UTF-8.
// Sources: "-" for stdin, http:// or https:// URLs, ftp:// URLs, anything
// else is treated as a local file path.
func (r *Reader) Read(ctx context.Context, source string) (string, error) {
	switch {
	case source == StdinSource:
		return r.readStdin()
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return r.readHTTP(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return r.readFTP(ctx, source)
	default:
		return r.readFile(source)
	}
}

func (r *Reader) readStdin() (string, error) {
	data, err := io.ReadAll(io.LimitReader(r.stdin, r.opts.MaxSizeBytes+1))
	if err != nil {
		return "", eris.Wrap(err, "ingest: read stdin")
	}
	if int64(len(data)) > r.opts.MaxSizeBytes {
		return "", eris.Errorf("ingest: stdin exceeds %d bytes", r.opts.MaxSizeBytes)
	}
	return decodeText(data, "")
}

func (r *Reader) readFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: stat %s", path)
	}
	if info.Size() > r.opts.MaxSizeBytes {
		return "", eris.Errorf("ingest: %s exceeds %d bytes", path, r.opts.MaxSizeBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: read %s", path)
	}
	return decodeText(data, "")
}

func (r *Reader) readHTTP(ctx context.Context, rawURL string) (string, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts: r.opts.Retries,
		OnRetry:     resilience.RetryLogger("ingest", "http get"),
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "ingest: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", eris.Wrap(err, "ingest: create request")
		}
		req.Header.Set("User-Agent", r.opts.UserAgent)

		resp, err := r.client.Do(req)
		if err != nil {
			return "", resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("ingest: unexpected status %d from %s", resp.StatusCode, rawURL)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return "", resilience.NewTransientError(err, resp.StatusCode)
			}
			return "", err
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxSizeBytes+1))
		if err != nil {
			return "", resilience.NewTransientError(eris.Wrap(err, "ingest: read body"), 0)
		}
		if int64(len(data)) > r.opts.MaxSizeBytes {
			return "", eris.Errorf("ingest: %s exceeds %d bytes", rawURL, r.opts.MaxSizeBytes)
		}

		zap.L().Debug("ingest: downloaded document",
			zap.String("url", rawURL),
			zap.Int("bytes", len(data)),
		)
		return decodeText(data, charsetFromContentType(resp.Header.Get("Content-Type")))
	})
}
