package gitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tinyland-inc/gitterclaw/pkg/logger"
)

// maxResponseSize bounds how much of a REST response body is read.
const maxResponseSize int64 = 32 << 20

// Base selects which of the two configured root URLs a request targets.
type Base int

const (
	BaseREST Base = iota
	BaseStream
)

func (b Base) String() string {
	if b == BaseStream {
		return "stream"
	}
	return "rest"
}

// Transport issues authenticated requests against the REST and streaming
// roots. Every request carries the bearer token (set by oauth2.Transport)
// and the JSON content headers.
type Transport struct {
	restURL      string
	streamURL    string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewTransport builds a Transport from cfg. The REST client enforces
// cfg.Timeout per request; the stream client only bounds the time to
// response headers, since a stream body stays open indefinitely.
func NewTransport(cfg Config) (*Transport, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	})

	restBase := cfg.BaseTransport
	streamBase := cfg.BaseTransport
	if restBase == nil {
		restBase = http.DefaultTransport
		if dt, ok := http.DefaultTransport.(*http.Transport); ok {
			st := dt.Clone()
			st.ResponseHeaderTimeout = cfg.Timeout
			streamBase = st
		} else {
			streamBase = http.DefaultTransport
		}
	}

	return &Transport{
		restURL:   cfg.RESTURL,
		streamURL: cfg.StreamURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: source, Base: restBase},
		},
		streamClient: &http.Client{
			Transport: &oauth2.Transport{Source: source, Base: streamBase},
		},
	}, nil
}

// URL resolves a relative path against the selected root. A leading
// slash is dropped so the root's own path is always kept.
func (t *Transport) URL(base Base, path string) string {
	path = strings.TrimPrefix(path, "/")
	if base == BaseStream {
		return t.streamURL + path
	}
	return t.restURL + path
}

// Get issues a GET against the REST root.
func (t *Transport) Get(ctx context.Context, path string) Result {
	return t.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST against the REST root with payload encoded as JSON.
func (t *Transport) Post(ctx context.Context, path string, payload any) Result {
	return t.Do(ctx, http.MethodPost, path, payload)
}

// Delete issues a DELETE against the REST root.
func (t *Transport) Delete(ctx context.Context, path string) Result {
	return t.Do(ctx, http.MethodDelete, path, nil)
}

// Do performs one round trip against the REST root. It never returns an
// error: every failure is folded into an empty Result that keeps the cause.
func (t *Transport) Do(ctx context.Context, method, path string, payload any) Result {
	request, err := t.newRequest(ctx, method, BaseREST, path, payload)
	if err != nil {
		return emptyResult(method, path, 0, err)
	}

	start := time.Now()
	response, err := t.httpClient.Do(request)
	if err != nil {
		cause := classify(err)
		logger.DebugCF("gitter", "Request failed", map[string]any{
			"method": method,
			"path":   path,
			"error":  cause.Error(),
		})
		return emptyResult(method, path, 0, cause)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return emptyResult(method, path, response.StatusCode, classify(err))
	}

	logger.DebugCF("gitter", "Request completed", map[string]any{
		"method":   method,
		"path":     path,
		"status":   response.StatusCode,
		"duration": time.Since(start).String(),
		"bytes":    len(body),
	})

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return emptyResult(method, path, response.StatusCode, apiError(response.StatusCode, body))
	}
	return parseResult(method, path, response.StatusCode, body)
}

// Stream opens a GET against the streaming root and returns the live
// response without reading from it. The caller owns and must close the body.
func (t *Transport) Stream(ctx context.Context, path string) (*http.Response, error) {
	request, err := t.newRequest(ctx, http.MethodGet, BaseStream, path, nil)
	if err != nil {
		return nil, &NoDataError{Method: http.MethodGet, Path: path, Cause: err}
	}

	response, err := t.streamClient.Do(request)
	if err != nil {
		return nil, &NoDataError{Method: http.MethodGet, Path: path, Cause: classify(err)}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
		return nil, &NoDataError{
			Method:     http.MethodGet,
			Path:       path,
			StatusCode: response.StatusCode,
			Cause:      apiError(response.StatusCode, body),
		}
	}

	logger.DebugCF("gitter", "Stream opened", map[string]any{
		"path":   path,
		"status": response.StatusCode,
	})
	return response, nil
}

func (t *Transport) newRequest(ctx context.Context, method string, base Base, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, t.URL(base, path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json; charset=utf-8")
	request.Header.Set("Accept", "application/json")
	return request, nil
}

// classify marks deadline and timeout failures with ErrTimeout so they
// stay distinguishable inside an otherwise uniform "no data" result.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func apiError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{}
	_ = json.Unmarshal(body, apiErr)
	apiErr.StatusCode = statusCode
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
