package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// VersionHeader carries the deploy timestamp of the API build.
const VersionHeader = "jv-version"

// API is the subset of the requester used by the guard and the stores.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
	PostForm(ctx context.Context, path string, data any) (*Response, error)
	PutForm(ctx context.Context, path string, data any) (*Response, error)
}

// HTTPRequester handles both request building and execution
type HTTPRequester struct {
	client     *http.Client
	serviceCfg *config.APIConfig
	builder    *HTTPRequestBuilder
	inflight   *singleflight.Group
	onVersion  func(string)
}

type HTTPRequesterParams struct {
	fx.In

	APIConfig   *config.APIConfig
	AuthManager AuthManager
}

// NewHTTPRequester creates a new HTTPRequester from the API configuration
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	timeout := params.APIConfig.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	authMgr := params.AuthManager
	if authMgr == nil {
		authMgr = NoAuthManager{}
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: timeout,
		},
		serviceCfg: params.APIConfig,
		builder:    NewHTTPRequestBuilder(params.APIConfig, authMgr),
		inflight:   &singleflight.Group{},
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// OnVersion registers fn to receive the jv-version header of every response.
func (r *HTTPRequester) OnVersion(fn func(string)) {
	r.onVersion = fn
}

// WithCookies returns a requester that acts on behalf of the visitor owning
// cookies. It shares the HTTP client but not the in-flight de-duplication,
// so two visitors never receive each other's responses.
func (r *HTTPRequester) WithCookies(cookies []*http.Cookie) *HTTPRequester {
	return &HTTPRequester{
		client:     r.client,
		serviceCfg: r.serviceCfg,
		builder:    NewHTTPRequestBuilder(r.serviceCfg, NewSessionAuthManager(r.serviceCfg, cookies)),
		inflight:   &singleflight.Group{},
		onVersion:  r.onVersion,
	}
}

// Get performs a GET request against the API.
func (r *HTTPRequester) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return r.do(ctx, http.MethodGet, path, query, nil)
}

// PostForm posts data as form data.
func (r *HTTPRequester) PostForm(ctx context.Context, path string, data any) (*Response, error) {
	return r.do(ctx, http.MethodPost, path, nil, data)
}

// PutForm puts data as form data.
func (r *HTTPRequester) PutForm(ctx context.Context, path string, data any) (*Response, error) {
	return r.do(ctx, http.MethodPut, path, nil, data)
}

func (r *HTTPRequester) do(ctx context.Context, method, path string, query url.Values, data any) (*Response, error) {
	req, err := r.builder.BuildRequest(ctx, method, path, query, data)
	if err != nil {
		return nil, err
	}

	var (
		v      interface{}
		shared bool
	)
	if method == http.MethodGet {
		// identical reads already on the wire share one round trip
		v, err, shared = r.inflight.Do(req.Signature, func() (interface{}, error) {
			return r.execute(req)
		})
	} else {
		v, err = r.execute(req)
	}
	if shared {
		logger.Debug("joined in-flight request", zap.String("signature", req.Signature))
	}
	if err != nil {
		logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	return v.(*Response), nil
}

// execute performs the actual HTTP request execution
func (r *HTTPRequester) execute(req *Request) (*Response, error) {
	logger.Debug("api request", zap.String("method", req.Method), zap.String("url", req.URL))

	resp, err := r.client.Do(req.HttpRequest)
	if err != nil {
		return nil, &APIError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("Failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}

	if r.onVersion != nil {
		if v := resp.Header.Get(VersionHeader); v != "" {
			r.onVersion(v)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(req, out)
	}
	return out, nil
}
