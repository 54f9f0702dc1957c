// Package fetcher issues HTTP requests with retry, exponential backoff and
// per-attempt timeouts, and classifies every failed attempt for the logs.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/brogergvhs/noveld/internal/ui"
)

// ErrRetriesExhausted means every allowed attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// DefaultMaxBodySize caps a buffered response body.
const DefaultMaxBodySize = 32 << 20

type Request struct {
	URL    string
	Method string
	Header http.Header
	Params url.Values
	Policy Policy
}

// Response is a fully buffered HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) NotFound() bool {
	return r.StatusCode == http.StatusNotFound
}

func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Timer matches retry.Timer so tests can replace real sleeps.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

type Fetcher struct {
	client  *http.Client
	log     *ui.Logger
	timer   Timer
	jitter  func() float64
	maxBody int64
}

type Option func(*Fetcher)

// WithMaxBodySize sets the largest body Do accepts. Larger responses fail
// without being retried.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

func WithTimer(t Timer) Option {
	return func(f *Fetcher) { f.timer = t }
}

// WithJitter replaces the uniform [0,1) source used for backoff jitter.
func WithJitter(fn func() float64) Option {
	return func(f *Fetcher) { f.jitter = fn }
}

func New(client *http.Client, log *ui.Logger, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = ui.NopLogger()
	}

	f := &Fetcher{
		client:  client,
		log:     log,
		jitter:  rand.Float64,
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Do performs req until it gets a 200 or a 404, the attempts run out, or ctx is
// done. A 404 is returned as a normal response so the caller can read it as
// "resource absent". Exhaustion returns ErrRetriesExhausted.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	policy := req.Policy.normalized()
	attempt := 0

	if _, err := buildRequest(ctx, req); err != nil {
		return nil, err
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(policy.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			wait := policy.Backoff(attempt, f.jitter())
			f.log.Infof("Retry in %.1f sec (attempt %d/%d)", wait.Seconds(), attempt, policy.MaxAttempts)
			return wait
		}),
	}
	if f.timer != nil {
		opts = append(opts, retry.WithTimer(f.timer))
	}

	resp, err := retry.DoWithData(func() (*Response, error) {
		attempt++
		return f.attempt(ctx, req, policy.Timeout)
	}, opts...)

	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", req.URL, ctxErr)
	}

	var aerr *AttemptError
	if errors.As(err, &aerr) && aerr.Class == ClassTooLarge {
		return nil, err
	}

	f.log.Warnf("Maximum number of attempts exceeded (%d) for %s", policy.MaxAttempts, req.URL)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
}

func (f *Fetcher) attempt(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		// a malformed request never gets better
		return nil, retry.Unrecoverable(err)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		aerr := &AttemptError{URL: req.URL, Class: ClassifyError(err), Err: err}
		f.log.Infof("Request failed: %v", aerr)
		return nil, aerr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	class := ClassifyStatus(resp.StatusCode)
	switch class {
	case ClassOK, ClassNotFound:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
		if err != nil {
			aerr := &AttemptError{URL: req.URL, Class: ClassifyError(err), Err: err}
			f.log.Infof("Reading body failed: %v", aerr)
			return nil, aerr
		}
		if int64(len(body)) > f.maxBody {
			aerr := &AttemptError{
				URL:   req.URL,
				Class: ClassTooLarge,
				Err:   fmt.Errorf("body exceeds %d bytes", f.maxBody),
			}
			f.log.Warnf("Request failed: %v", aerr)
			// the same resource will not get smaller
			return nil, retry.Unrecoverable(aerr)
		}
		if class == ClassNotFound {
			f.log.Infof("Resource (%s) not found: %s", req.URL, resp.Status)
		}
		return &Response{
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		}, nil
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		aerr := &AttemptError{
			URL:    req.URL,
			Class:  class,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
		f.log.Infof("Request failed: %v", aerr)
		return nil, aerr
	}
}

func buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", req.URL, err)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return httpReq, nil
}
