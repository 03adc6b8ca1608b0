package requester

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Request represents a fully built HTTP request
type Request struct {
	URL         string
	Method      string
	Path        string
	Signature   string
	ContentType string
	HttpRequest *http.Request // The actual HTTP request
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// APIError is returned for transport failures and non-2xx responses.
// StatusCode is zero when the request never got a response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Detail     string
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.StatusCode == 0 {
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
		return b.String()
	}
	fmt.Fprintf(&b, ": %s", e.Status)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// IsTransport reports whether err is a failure that never reached the API.
func IsTransport(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 0
	}
	return false
}

func newStatusError(req *Request, resp *Response) *APIError {
	apiErr := &APIError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Status:     fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Body:       resp.Body,
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(resp.Body, &body) == nil {
		apiErr.Detail = body.Detail
	}
	return apiErr
}
