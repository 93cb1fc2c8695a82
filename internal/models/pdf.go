package models

import "strings"

// PdfMimetype is the declared type that triggers URL and filename fixes.
const PdfMimetype = "application/pdf"

// PdfKind identifies which shape a PdfFile carries.
type PdfKind int

const (
	PdfInvalid PdfKind = iota
	PdfCloud
	PdfLegacy
	PdfInline
)

func (k PdfKind) String() string {
	switch k {
	case PdfCloud:
		return "cloud"
	case PdfLegacy:
		return "legacy"
	case PdfInline:
		return "inline"
	default:
		return "invalid"
	}
}

// PdfFile references a notice attachment. Exactly one shape is expected:
// cloud (URL), legacy (Filename or FileID served by the API) or inline
// (base64 Data).
type PdfFile struct {
	URL          string `json:"url,omitempty"`
	PublicID     string `json:"publicId,omitempty"`
	Mimetype     string `json:"mimetype,omitempty"`
	OriginalName string `json:"originalName,omitempty"`

	Filename string `json:"filename,omitempty"`
	FileID   string `json:"fileId,omitempty"`

	Data string `json:"data,omitempty"`
	Name string `json:"name,omitempty"`
}

// Kind probes the shapes in priority order: cloud, legacy, inline.
func (p *PdfFile) Kind() PdfKind {
	switch {
	case p == nil:
		return PdfInvalid
	case p.URL != "":
		return PdfCloud
	case p.LegacyID() != "":
		return PdfLegacy
	case p.Data != "":
		return PdfInline
	default:
		return PdfInvalid
	}
}

// LegacyID returns the identifier used under /files.
func (p *PdfFile) LegacyID() string {
	if p == nil {
		return ""
	}
	if p.Filename != "" {
		return p.Filename
	}
	return p.FileID
}

// IsPDF reports whether the declared mimetype is application/pdf.
func (p *PdfFile) IsPDF() bool {
	return p != nil && strings.EqualFold(p.Mimetype, PdfMimetype)
}
