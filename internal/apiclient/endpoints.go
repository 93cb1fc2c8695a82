package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jamalpur-chamber/chamber/internal/models"
)

// --- Notices ---

// NoticeForm is the multipart payload for creating or updating a notice.
type NoticeForm struct {
	Title    string
	Content  string
	Priority models.Priority
	PdfFile  *Attachment
}

func (f NoticeForm) multipart() *multipartForm {
	priority := f.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	form := &multipartForm{}
	form.field("title", f.Title).
		field("content", f.Content).
		field("priority", string(priority)).
		file("pdfFile", f.PdfFile)
	return form
}

// ListNotices returns the raw GET /notices body.
func (c *Client) ListNotices(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/notices", fallback: "Failed to fetch notices"})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// CreateNotice posts a new notice.
func (c *Client) CreateNotice(ctx context.Context, token string, form NoticeForm) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodPost,
		path:     "/notices",
		token:    token,
		form:     form.multipart(),
		fallback: "Failed to create notice",
	})
}

// UpdateNotice replaces the notice identified by id.
func (c *Client) UpdateNotice(ctx context.Context, token, id string, form NoticeForm) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodPut,
		path:     "/notices/" + url.PathEscape(id),
		token:    token,
		form:     form.multipart(),
		fallback: "Failed to update notice",
	})
}

// DeleteNotice removes the notice identified by id.
func (c *Client) DeleteNotice(ctx context.Context, token, id string) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodDelete,
		path:     "/notices/" + url.PathEscape(id),
		token:    token,
		fallback: "Failed to delete notice",
	})
}

// --- Gallery ---

// GalleryUpload is the multipart payload for POST /gallery/upload.
type GalleryUpload struct {
	Title       string
	Description string
	Image       *Attachment
}

// ListGallery returns the gallery entries undecoded so that callers can
// filter malformed ones individually.
func (c *Client) ListGallery(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: "/gallery", fallback: "Failed to fetch gallery"})
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal gallery: %w", err)
	}
	return entries, nil
}

// UploadImage posts a new gallery image.
func (c *Client) UploadImage(ctx context.Context, token string, up GalleryUpload) (*Response, error) {
	form := &multipartForm{}
	form.field("title", up.Title).
		field("description", up.Description).
		file("image", up.Image)
	return c.mutate(ctx, request{
		method:   http.MethodPost,
		path:     "/gallery/upload",
		token:    token,
		form:     form,
		fallback: "Failed to upload image",
	})
}

// DeleteImage removes the gallery image identified by id.
func (c *Client) DeleteImage(ctx context.Context, token, id string) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodDelete,
		path:     "/gallery/" + url.PathEscape(id),
		token:    token,
		fallback: "Failed to delete image",
	})
}

// --- Files ---

// FileURL returns the legacy download URL for a stored file.
func (c *Client) FileURL(id string) string {
	return FileURL(c.BaseURL, id)
}

// FileURL builds {base}/files/{id}.
func FileURL(base, id string) string {
	return base + "/files/" + url.PathEscape(id)
}

// --- Auth ---

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     map[string]string{"email": email, "password": password},
		fallback: "Login failed",
	})
	if err != nil {
		return nil, err
	}
	var resp LoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &resp, nil
}

// ForgotPassword asks the backend to email a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/forgot-password",
		body:     map[string]string{"email": email},
		fallback: "Failed to send reset email",
	})
}

// VerifyResetToken checks whether a password-reset token is still valid.
func (c *Client) VerifyResetToken(ctx context.Context, token string) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/verify-reset-token",
		body:     map[string]string{"token": token},
		fallback: "Invalid or expired reset link",
	})
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (*Response, error) {
	return c.mutate(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/reset-password",
		body:     map[string]string{"token": token, "password": password},
		fallback: "Failed to reset password. The link may have expired.",
	})
}
