package models

import (
	"encoding/json"
	"strings"
	"time"
)

// TempIDPrefix marks client-only placeholder rows that were never persisted.
const TempIDPrefix = "temp-"

// Identity holds a record identifier. The backend sends it as "id" while
// records that round-tripped through the database carry "_id".
type Identity struct {
	ID    string `json:"id,omitempty"`
	AltID string `json:"_id,omitempty"`
}

// Key returns the first non-empty identifier.
func (i Identity) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.AltID
}

// Identifier returns the identity itself. Records embedding Identity expose it
// through this method.
func (i Identity) Identifier() Identity {
	return i
}

// IsZero reports whether neither key is set.
func (i Identity) IsZero() bool {
	return i.ID == "" && i.AltID == ""
}

// Matches reports whether id equals either key.
func (i Identity) Matches(id string) bool {
	return id != "" && (i.ID == id || i.AltID == id)
}

// SameIdentity reports whether a and b name the same logical record. Any
// non-empty key of one may match any non-empty key of the other.
func SameIdentity(a, b Identity) bool {
	return a.Matches(b.ID) || a.Matches(b.AltID)
}

// Priority represents notice priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the accepted priority values in display order.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

// ParsePriority normalizes s, defaulting to normal when empty.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, true
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Notice is a portal announcement, optionally with a PDF attachment.
type Notice struct {
	Identity
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  Priority  `json:"priority,omitempty"`
	PdfFile   *PdfFile  `json:"pdfFile,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Merge applies the top-level fields present in raw over a copy of n. A
// pdfFile in raw replaces the attachment as a whole.
func (n Notice) Merge(raw json.RawMessage) (Notice, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return n, err
	}

	merged := n
	if _, ok := fields["pdfFile"]; ok {
		merged.PdfFile = nil
	} else if n.PdfFile != nil {
		pdf := *n.PdfFile
		merged.PdfFile = &pdf
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return n, err
	}
	return merged, nil
}

// GalleryImage is a single image in the portal gallery.
type GalleryImage struct {
	Identity
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"imageUrl"`
	IsOptimistic bool   `json:"isOptimistic,omitempty"`
}

// IsPlaceholder reports whether the image is a client-only row awaiting
// server confirmation.
func (g GalleryImage) IsPlaceholder() bool {
	return g.IsOptimistic || strings.HasPrefix(g.ID, TempIDPrefix) || strings.HasPrefix(g.AltID, TempIDPrefix)
}

// Merge applies the fields present in raw over a copy of g.
func (g GalleryImage) Merge(raw json.RawMessage) (GalleryImage, error) {
	merged := g
	if err := json.Unmarshal(raw, &merged); err != nil {
		return g, err
	}
	return merged, nil
}

// ValidImageURL reports whether u uses an http or https scheme.
func ValidImageURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// User is the logged-in account as returned by the login endpoint.
type User struct {
	Identity
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// Admin reports whether the user has the admin role.
func (u *User) Admin() bool {
	return u != nil && (u.IsAdmin || u.Role == "admin")
}
