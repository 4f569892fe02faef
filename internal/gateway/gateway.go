package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"time"
)

// Request describes one backend call. Body is JSON-encoded when set;
// File switches the request to multipart/form-data.
type Request struct {
	Endpoint Endpoint
	Body     any
	File     *File
	// Bare marks endpoints that answer without a success flag. An explicit
	// success:false still fails.
	Bare bool
}

// File is a multipart upload part.
type File struct {
	Name    string
	Content io.Reader
}

// Caller performs backend calls. On success the envelope is decoded into out.
// A non-nil error is always an *Error.
type Caller interface {
	Call(ctx context.Context, req Request, out any) error
}

// Result is the tagged outcome of a typed call.
type Result[T any] struct {
	Value T
	Err   *Error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Call performs req through c and decodes the envelope into a T.
func Call[T any](ctx context.Context, c Caller, req Request) Result[T] {
	var out T
	if err := c.Call(ctx, req, &out); err != nil {
		return Result[T]{Err: AsError(err)}
	}
	return Result[T]{Value: out}
}

// HTTPClient implements Caller against the clustering backend's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new backend client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Call(ctx context.Context, req Request, out any) error {
	ep := req.Endpoint.String()

	body, contentType, err := encodeBody(req)
	if err != nil {
		return &Error{Kind: KindValidation, Endpoint: ep, Message: err.Error(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Endpoint.Method, c.baseURL+req.Endpoint.Path, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: ep, Message: "building request", Err: err}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(ep, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyError(ep, err)
	}

	return decodeEnvelope(ep, resp.StatusCode, raw, req.Bare, out)
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.File != nil {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", req.File.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return nil, "", fmt.Errorf("reading upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("closing multipart body: %w", err)
		}
		return &buf, mw.FormDataContentType(), nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}

// envelopeHeader is the part of every backend response that signals the
// business-level outcome, independent of HTTP status.
type envelopeHeader struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeEnvelope folds HTTP status and the success flag into one outcome.
// A 200 carrying success:false is treated exactly like a transport failure.
func decodeEnvelope(ep string, status int, raw []byte, bare bool, out any) error {
	var hdr envelopeHeader
	decodeErr := json.Unmarshal(raw, &hdr)

	if status < 200 || status > 299 {
		kind := KindServer
		if status >= 400 && status < 500 {
			kind = KindValidation
		}
		return &Error{Kind: kind, Endpoint: ep, Status: status, Message: failureMessage(hdr, status)}
	}
	if decodeErr != nil {
		return &Error{Kind: KindServer, Endpoint: ep, Status: status, Message: "malformed response body", Err: decodeErr}
	}
	if (hdr.Success == nil && !bare) || (hdr.Success != nil && !*hdr.Success) {
		return &Error{Kind: KindServer, Endpoint: ep, Status: status, Message: failureMessage(hdr, status)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServer, Endpoint: ep, Status: status, Message: "unexpected response shape", Err: err}
	}
	return nil
}

func failureMessage(hdr envelopeHeader, status int) string {
	switch {
	case hdr.Error != "":
		return hdr.Error
	case hdr.Message != "":
		return hdr.Message
	case status >= 200 && status < 300:
		return "request failed"
	default:
		return http.StatusText(status)
	}
}

// classifyError maps transport-level errors to network failures.
func classifyError(ep string, err error) error {
	msg := "backend unreachable"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		msg = "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		msg = "request timed out"
	}
	return &Error{Kind: KindNetwork, Endpoint: ep, Message: msg, Err: err}
}

// Compile-time check that HTTPClient implements Caller.
var _ Caller = (*HTTPClient)(nil)
