package runner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"surge/internal/stats"
)

// Requester performs one request/response exchange. Implementations never
// return errors; every failure is folded into a failed Outcome.
type Requester interface {
	Execute(ctx context.Context, target string, workerID int) stats.Outcome
}

type ExecutorOptions struct {
	Timeout   time.Duration // 0 leaves only the transport's own limits
	UserAgent string
	Headers   map[string]string
	Insecure  bool // skip TLS verification
}

// Executor issues GET requests with caching disabled.
type Executor struct {
	client    *http.Client
	opts      ExecutorOptions
	templates *TemplateEngine
}

func NewExecutor(opts ExecutorOptions) *Executor {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	if opts.Insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Executor{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: t,
		},
		opts:      opts,
		templates: NewTemplateEngine(),
	}
}

// Execute measures from just before the request is issued until the response
// body has been fully read, or until the failure surfaced.
func (e *Executor) Execute(ctx context.Context, target string, workerID int) stats.Outcome {
	start := time.Now()

	out := e.do(ctx, target, workerID, start)
	out.WorkerID = workerID
	return out
}

func (e *Executor) do(ctx context.Context, target string, workerID int, start time.Time) stats.Outcome {
	addr := target
	if IsTemplate(target) {
		rendered, err := e.templates.Render(target, TemplateData{
			Worker:    workerID,
			RequestID: uuid.NewString(),
		})
		if err != nil {
			return stats.Failed(fmt.Sprintf("invalid target template: %v", err), time.Since(start))
		}
		addr = rendered
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return stats.Failed(describe(err), time.Since(start))
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if e.opts.UserAgent != "" {
		req.Header.Set("User-Agent", e.opts.UserAgent)
	}
	for k, v := range e.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return stats.Failed(describe(err), time.Since(start))
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)
	if err != nil {
		return stats.Failed(fmt.Sprintf("reading response: %s", describe(err)), latency)
	}

	// ContentLength is -1 when the response did not declare one
	length := resp.ContentLength
	if length < 0 {
		length = stats.UnknownLength
	}
	return stats.Succeeded(resp.StatusCode, latency, length)
}

// describe strips the "Get <url>:" wrapper net/http adds around transport errors.
func describe(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
