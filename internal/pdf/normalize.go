package pdf

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jamalpur-chamber/chamber/internal/models"
)

// DefaultFilename is used when a reference carries no usable name.
const DefaultFilename = "document.pdf"

const cloudinaryHost = "res.cloudinary.com"

var trailingExt = regexp.MustCompile(`(\.[a-zA-Z0-9]+)(\?.*)?$`)

// NormalizeURL returns the URL to fetch for a cloud reference. PDFs served
// from the image channel of the asset CDN are moved to the raw channel and
// given a .pdf extension.
func NormalizeURL(ref *models.PdfFile) string {
	if ref == nil || ref.URL == "" {
		return ""
	}
	if !ref.IsPDF() {
		return ref.URL
	}

	u, err := url.Parse(ref.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rewriteMalformed(ref.URL)
	}

	path := u.Path
	if strings.Contains(u.Hostname(), cloudinaryHost) && strings.Contains(path, "/upload/") {
		path = toRawChannel(path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		path = withPdfSegment(path)
	}
	u.Path = path
	u.RawPath = ""
	return u.String()
}

func toRawChannel(s string) string {
	s = strings.Replace(s, "/image/upload/", "/raw/upload/", 1)
	return strings.Replace(s, "/auto/upload/", "/raw/upload/", 1)
}

// withPdfSegment replaces the extension of the last path segment with .pdf.
func withPdfSegment(path string) string {
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if last == "" {
		last = DefaultFilename
	}
	if i := strings.Index(last, "."); i >= 0 {
		last = last[:i]
	}
	segments[len(segments)-1] = last + ".pdf"
	return strings.Join(segments, "/")
}

func rewriteMalformed(raw string) string {
	if !strings.Contains(raw, ".") {
		return raw + ".pdf"
	}
	s := toRawChannel(raw)
	return trailingExt.ReplaceAllString(s, ".pdf$2")
}

// Filename picks the save-as name for ref.
func Filename(ref *models.PdfFile) string {
	if ref == nil {
		return DefaultFilename
	}
	name := firstNonEmpty(ref.OriginalName, ref.Name, ref.Filename)
	if name == "" {
		name = DefaultFilename
	}
	if ref.IsPDF() && !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
