package requester

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/jobvyne/navguard/internal/config"
)

// formDataField is the multipart field the API reads JSON payloads from.
const formDataField = "data"

// HTTPRequestBuilder turns API calls into *http.Request values.
type HTTPRequestBuilder struct {
	serviceCfg *config.APIConfig
	authMgr    AuthManager
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(apiCfg *config.APIConfig, authMgr AuthManager) *HTTPRequestBuilder {
	return &HTTPRequestBuilder{
		serviceCfg: apiCfg,
		authMgr:    authMgr,
	}
}

// BuildRequest builds a request for path. data, when non-nil, is sent as
// multipart form data with a single JSON "data" field.
func (b *HTTPRequestBuilder) BuildRequest(ctx context.Context, method, path string, query url.Values, data any) (*Request, error) {
	reqURL, err := b.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if data != nil {
		payload, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	body, contentType, err := b.createFormBody(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range b.serviceCfg.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if err := b.authMgr.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}

	return &Request{
		URL:         reqURL,
		Method:      method,
		Path:        path,
		Signature:   signature(method, reqURL, payload),
		ContentType: contentType,
		HttpRequest: httpReq,
	}, nil
}

// buildURL joins base URL and path the way axios combines baseURL and url.
func (b *HTTPRequestBuilder) buildURL(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = strings.TrimRight(b.serviceCfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", raw, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (b *HTTPRequestBuilder) createFormBody(payload []byte) (io.Reader, string, error) {
	if payload == nil {
		return nil, "", nil
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField(formDataField, string(payload)); err != nil {
		return nil, "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// signature identifies identical in-flight requests.
func signature(method, reqURL string, payload []byte) string {
	if len(payload) == 0 {
		return method + " " + reqURL
	}
	sum := sha256.Sum256(payload)
	return method + " " + reqURL + " " + hex.EncodeToString(sum[:])
}
