package models

import (
	"encoding/json"
	"testing"
)

func TestSameIdentity(t *testing.T) {
	tests := []struct {
		name string
		a, b Identity
		want bool
	}{
		{"same id", Identity{ID: "1"}, Identity{ID: "1"}, true},
		{"id vs alt", Identity{ID: "1"}, Identity{AltID: "1"}, true},
		{"alt vs id", Identity{AltID: "abc"}, Identity{ID: "abc"}, true},
		{"different", Identity{ID: "1"}, Identity{ID: "2"}, false},
		{"both empty", Identity{}, Identity{}, false},
		{"one empty", Identity{ID: "1"}, Identity{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameIdentity(tt.a, tt.b); got != tt.want {
				t.Errorf("SameIdentity(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNoticeDecodesEitherKey(t *testing.T) {
	var ns []Notice
	data := `[{"id":"1","title":"a"},{"_id":"2","title":"b"}]`
	if err := json.Unmarshal([]byte(data), &ns); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ns[0].Key() != "1" || ns[1].Key() != "2" {
		t.Errorf("keys = %q, %q", ns[0].Key(), ns[1].Key())
	}
}

func TestNoticeMergeDoesNotAliasPdf(t *testing.T) {
	orig := Notice{Identity: Identity{ID: "1"}, Title: "old", PdfFile: &PdfFile{URL: "https://a/x.pdf"}}
	merged, err := orig.Merge(json.RawMessage(`{"title":"new","pdfFile":{"url":"https://b/y.pdf"}}`))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Title != "new" || merged.PdfFile.URL != "https://b/y.pdf" {
		t.Errorf("merged = %+v", merged)
	}
	if orig.PdfFile.URL != "https://a/x.pdf" {
		t.Errorf("original pdf mutated: %s", orig.PdfFile.URL)
	}
	if merged.Content != "" || merged.ID != "1" {
		t.Errorf("unexpected fields changed: %+v", merged)
	}
}

func TestNoticeMergeReplacesPdf(t *testing.T) {
	orig := Notice{
		Identity: Identity{ID: "1"},
		Title:    "old",
		PdfFile: &PdfFile{
			URL:          "https://res.cloudinary.com/x/image/upload/a.pdf",
			PublicID:     "a",
			OriginalName: "a.pdf",
		},
	}

	tests := []struct {
		name     string
		patch    string
		wantKind PdfKind
		check    func(t *testing.T, n Notice)
	}{
		{
			name:     "cloud to legacy",
			patch:    `{"pdfFile":{"filename":"new.pdf","originalName":"new.pdf"}}`,
			wantKind: PdfLegacy,
			check: func(t *testing.T, n Notice) {
				if n.PdfFile.URL != "" || n.PdfFile.PublicID != "" {
					t.Errorf("cloud fields survived: %+v", n.PdfFile)
				}
				if n.PdfFile.Filename != "new.pdf" {
					t.Errorf("filename = %q", n.PdfFile.Filename)
				}
			},
		},
		{
			name:     "removed",
			patch:    `{"pdfFile":null}`,
			wantKind: PdfInvalid,
			check: func(t *testing.T, n Notice) {
				if n.PdfFile != nil {
					t.Errorf("pdfFile = %+v, want nil", n.PdfFile)
				}
			},
		},
		{
			name:     "untouched",
			patch:    `{"title":"new"}`,
			wantKind: PdfCloud,
			check: func(t *testing.T, n Notice) {
				if n.PdfFile == orig.PdfFile {
					t.Error("merged notice aliases the original attachment")
				}
				if n.Title != "new" {
					t.Errorf("title = %q", n.Title)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := orig.Merge(json.RawMessage(tt.patch))
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			if got := merged.PdfFile.Kind(); got != tt.wantKind {
				t.Errorf("kind = %s, want %s", got, tt.wantKind)
			}
			tt.check(t, merged)
		})
	}
	if orig.PdfFile.URL == "" {
		t.Error("original attachment mutated")
	}
}

func TestNoticeMergeRejectsNonObject(t *testing.T) {
	orig := Notice{Identity: Identity{ID: "1"}, Title: "old"}
	merged, err := orig.Merge(json.RawMessage(`"oops"`))
	if err == nil {
		t.Fatal("Merge of a string should fail")
	}
	if merged.Title != "old" {
		t.Errorf("merged = %+v", merged)
	}
}

func TestPdfKind(t *testing.T) {
	tests := []struct {
		name string
		ref  *PdfFile
		want PdfKind
	}{
		{"nil", nil, PdfInvalid},
		{"empty", &PdfFile{}, PdfInvalid},
		{"cloud wins", &PdfFile{URL: "https://x", Filename: "a.pdf", Data: "abc"}, PdfCloud},
		{"legacy filename", &PdfFile{Filename: "a.pdf"}, PdfLegacy},
		{"legacy file id", &PdfFile{FileID: "123"}, PdfLegacy},
		{"legacy before inline", &PdfFile{FileID: "123", Data: "abc"}, PdfLegacy},
		{"inline", &PdfFile{Data: "data:application/pdf;base64,AA==", Name: "x.pdf"}, PdfInline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidImageURL(t *testing.T) {
	for _, u := range []string{"http://x/y.jpg", "https://x/y.jpg"} {
		if !ValidImageURL(u) {
			t.Errorf("ValidImageURL(%q) = false", u)
		}
	}
	for _, u := range []string{"", "ftp://x", "/local.png", "httpx", "data:image/png;base64,AA"} {
		if ValidImageURL(u) {
			t.Errorf("ValidImageURL(%q) = true", u)
		}
	}
}

func TestParsePriority(t *testing.T) {
	if p, ok := ParsePriority(""); !ok || p != PriorityNormal {
		t.Errorf("empty = %q, %v", p, ok)
	}
	if p, ok := ParsePriority("HIGH"); !ok || p != PriorityHigh {
		t.Errorf("HIGH = %q, %v", p, ok)
	}
	if _, ok := ParsePriority("P0"); ok {
		t.Error("P0 accepted")
	}
}

func TestGalleryPlaceholder(t *testing.T) {
	if !(GalleryImage{IsOptimistic: true}).IsPlaceholder() {
		t.Error("optimistic flag not a placeholder")
	}
	if !(GalleryImage{Identity: Identity{ID: "temp-1"}}).IsPlaceholder() {
		t.Error("temp id not a placeholder")
	}
	if (GalleryImage{Identity: Identity{ID: "5"}}).IsPlaceholder() {
		t.Error("persisted image marked placeholder")
	}
}
