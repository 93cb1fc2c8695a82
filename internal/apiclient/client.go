// Package apiclient is the REST transport for the portal backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-success response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return e.Message
}

// Unwrap maps auth statuses onto the sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Response is the decoded body of a successful mutation. The affected record
// is wrapped differently per endpoint, so the raw body is kept for Decode.
type Response struct {
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Decode unmarshals the value under key into v, or the whole body when key is
// empty.
func (r *Response) Decode(key string, v any) error {
	if r == nil || len(r.Raw) == 0 {
		return errors.New("empty response")
	}
	if key == "" {
		return json.Unmarshal(r.Raw, v)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Raw, &fields); err != nil {
		return err
	}
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("response has no %q", key)
	}
	return json.Unmarshal(raw, v)
}

// Attachment is a file part in a multipart request.
type Attachment struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Client is an HTTP client for the portal API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client rooted at baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// request describes one call. Body is JSON-encoded unless Form is set.
type request struct {
	method   string
	path     string
	token    string
	body     any
	form     *multipartForm
	fallback string
}

type multipartForm struct {
	fields []formField
	files  []formFile
}

type formField struct{ name, value string }

type formFile struct {
	field string
	att   Attachment
}

func (f *multipartForm) field(name, value string) *multipartForm {
	f.fields = append(f.fields, formField{name, value})
	return f
}

func (f *multipartForm) file(field string, att *Attachment) *multipartForm {
	if att != nil && att.Body != nil {
		f.files = append(f.files, formFile{field, *att})
	}
	return f
}

func (f *multipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, ff := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ff.field, ff.att.Name))
		ct := ff.att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, ff.att.Body); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", ff.att.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// do executes req and returns the raw response body.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var bodyReader io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		r, ct, err := req.form.encode()
		if err != nil {
			return nil, fmt.Errorf("encode form: %w", err)
		}
		bodyReader, contentType = r, ct
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BaseURL+req.path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = req.fallback
		}
		return nil, apiErr
	}
	return respBody, nil
}

// mutate executes req and wraps the body in a Response.
func (c *Client) mutate(ctx context.Context, req request) (*Response, error) {
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := &Response{Raw: json.RawMessage(body)}
	if len(body) > 0 {
		// Non-object bodies are kept raw only.
		_ = json.Unmarshal(body, resp)
	}
	return resp, nil
}
