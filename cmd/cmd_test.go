package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamalpur-chamber/chamber/internal/account"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/gallery"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/output"
)

func TestTruncateID(t *testing.T) {
	tests := []struct {
		id   string
		max  int
		want string
	}{
		{"short", 16, "short"},
		{"exactly16chars!!", 16, "exactly16chars!!"},
		{"this-is-a-very-long-id-string", 16, "this-is-a-ver..."},
		{"abcdefghijk", 10, "abcdefg..."},
		{"", 10, "?"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.id, tt.max), func(t *testing.T) {
			if got := truncateID(tt.id, tt.max); got != tt.want {
				t.Errorf("truncateID(%q, %d) = %q, want %q", tt.id, tt.max, got, tt.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	tests := []struct {
		name     string
		event    string
		payload  string
		contains []string
	}{
		{"news created", "news-created", `{"id":"n1","title":"AGM"}`, []string{"10:30:45", "+", "notice", "n1", "AGM"}},
		{"news updated by _id", "news-updated", `{"_id":"n2","title":"Fees"}`, []string{"~", "notice", "n2", "Fees"}},
		{"image deleted", "gallery-image-deleted", `{"id":"g1"}`, []string{"-", "image", "g1"}},
		{"malformed payload", "news-deleted", `"oops"`, []string{"notice", "?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := formatEvent(at, tt.event, json.RawMessage(tt.payload))
			for _, s := range tt.contains {
				if !strings.Contains(line, s) {
					t.Errorf("line missing %q\ngot: %s", s, line)
				}
			}
		})
	}
}

func TestPriorityValue(t *testing.T) {
	var v priorityValue
	if err := v.Set("HIGH"); err != nil || v.String() != "high" {
		t.Fatalf("Set(HIGH) = %v, value %q", err, v.String())
	}
	if err := v.Set("critical"); err == nil {
		t.Error("Set(critical) should fail")
	}
	if v.String() != "high" {
		t.Errorf("failed Set changed value to %q", v.String())
	}
	if v.Type() != "priority" {
		t.Errorf("Type = %q", v.Type())
	}
}

func TestFilterPriority(t *testing.T) {
	list := []models.Notice{
		{Identity: models.Identity{ID: "1"}, Priority: models.PriorityLow},
		{Identity: models.Identity{ID: "2"}},
		{Identity: models.Identity{ID: "3"}, Priority: models.PriorityHigh},
		{Identity: models.Identity{ID: "4"}, Priority: models.PriorityUrgent},
	}
	var got []string
	for _, n := range filterPriority(list, models.PriorityNormal) {
		got = append(got, n.Key())
	}
	if strings.Join(got, ",") != "2,3,4" {
		t.Errorf("filterPriority(normal) = %v", got)
	}
	if n := len(filterPriority(list, models.PriorityUrgent)); n != 1 {
		t.Errorf("filterPriority(urgent) kept %d", n)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&apiclient.APIError{Status: 401, Message: "Invalid token"}, output.ErrCodeUnauthorized},
		{fmt.Errorf("delete: %w", &apiclient.APIError{Status: 403}), output.ErrCodeForbidden},
		{&apiclient.APIError{Status: 404}, output.ErrCodeNotFound},
		{fmt.Errorf("%w: x", errNoticeNotFound), output.ErrCodeNotFound},
		{gallery.ErrInvalidImageID, output.ErrCodeInvalidInput},
		{&account.Error{Message: account.MsgMismatch, Err: account.ErrValidation}, output.ErrCodeInvalidInput},
		{&apiclient.APIError{Status: 500}, output.ErrCodeNetwork},
		{io.ErrUnexpectedEOF, output.ErrCodeNetwork},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()
	w.Close()
	os.Stdout = old
	return <-done
}

// runCLI executes the root command against a test portal.
func runCLI(t *testing.T, h http.HandlerFunc, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	t.Setenv("CHAMBER_MODE", "development")
	t.Setenv("CHAMBER_API_URL", srv.URL+"/api")
	t.Setenv("CHAMBER_STORE", "memory")
	t.Setenv("CHAMBER_DATA_DIR", t.TempDir())
	t.Setenv("CHAMBER_ENABLE_WEBSOCKET", "false")

	var runErr error
	out := captureStdout(t, func() {
		rootCmd.SetArgs(args)
		runErr = rootCmd.Execute()
	})
	return out, runErr
}

func TestNoticesListJSON(t *testing.T) {
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notices" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"_id":"a1","title":"AGM","content":"Friday","priority":"high"},{"id":"b2","title":"Fees","content":"x"}]`))
	}, "notices", "list", "--json")
	if err != nil {
		t.Fatalf("notices list: %v", err)
	}

	var got struct {
		Source  string          `json:"source"`
		Notices []models.Notice `json:"notices"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Source != "network" || len(got.Notices) != 2 || got.Notices[0].Key() != "a1" {
		t.Errorf("got %+v", got)
	}
}

func TestGalleryListFiltersInvalid(t *testing.T) {
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1","title":"ok","imageUrl":"https://img/1.jpg"},{"id":"2","title":"bad","imageUrl":"ftp://x"},{"id":"3"}]`))
	}, "gallery", "list", "--json")
	if err != nil {
		t.Fatalf("gallery list: %v", err)
	}
	var images []models.GalleryImage
	if err := json.Unmarshal([]byte(out), &images); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(images) != 1 || images[0].ID != "1" {
		t.Errorf("images = %+v", images)
	}
}

func TestGalleryDeleteRequiresLogin(t *testing.T) {
	hits := 0
	out, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	}, "gallery", "delete", "g1", "--json")
	if err == nil {
		t.Fatal("delete without login should fail")
	}
	if hits != 0 {
		t.Errorf("request sent without credentials (%d hits)", hits)
	}
	if !strings.Contains(out, `"unauthorized"`) {
		t.Errorf("json error missing code: %s", out)
	}
}

// withStdin feeds input to the line prompts for the rest of the test.
func withStdin(t *testing.T, input string) {
	t.Helper()
	old := stdinReader
	stdinReader = bufio.NewReader(strings.NewReader(input))
	t.Cleanup(func() { stdinReader = old })
}

func TestResetPasswordSubmitsDespiteRejectedToken(t *testing.T) {
	tests := []struct {
		name      string
		resetCode int
		resetBody string
		wantErr   string
	}{
		{"server accepts", http.StatusOK, `{"message":"Password updated"}`, ""},
		{"server message surfaces", http.StatusBadRequest, `{"message":"Token expired"}`, "Token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var resetBody map[string]string
			resets := 0

			withStdin(t, "Abcdefg1\nAbcdefg1\n")
			_, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/auth/verify-reset-token":
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(`{"message":"Invalid or expired token"}`))
				case "/api/auth/reset-password":
					mu.Lock()
					resets++
					json.NewDecoder(r.Body).Decode(&resetBody)
					mu.Unlock()
					w.WriteHeader(tt.resetCode)
					w.Write([]byte(tt.resetBody))
				default:
					http.NotFound(w, r)
				}
			}, "auth", "reset-password", "--token", "tok-1")

			mu.Lock()
			defer mu.Unlock()
			if resets != 1 {
				t.Fatalf("reset requests = %d, want 1", resets)
			}
			if resetBody["token"] != "tok-1" || resetBody["password"] != "Abcdefg1" {
				t.Errorf("reset body = %v", resetBody)
			}
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("reset-password: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestResetPasswordValidatesBeforeSending(t *testing.T) {
	var resets atomic.Int32
	withStdin(t, "Abcdefg1\nAbcdefg2\n")
	_, err := runCLI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/reset-password" {
			resets.Add(1)
		}
	}, "auth", "reset-password", "--token", "tok-1")
	if err == nil || err.Error() != account.MsgMismatch {
		t.Errorf("err = %v, want %q", err, account.MsgMismatch)
	}
	if n := resets.Load(); n != 0 {
		t.Errorf("mismatched passwords were sent (%d requests)", n)
	}
}

func TestCreatedImage(t *testing.T) {
	items := []models.GalleryImage{
		{Identity: models.Identity{ID: "old"}, Title: "Dinner", ImageURL: "https://img/old.jpg"},
		{Identity: models.Identity{AltID: "new"}, Title: "Dinner", ImageURL: "https://img/new.jpg"},
	}
	tests := []struct {
		name string
		body string
		want string
	}{
		{"full image in response", `{"image":{"id":"new","title":"Dinner","imageUrl":"https://cdn/new.jpg"}}`, "https://cdn/new.jpg"},
		{"identity only resolved from items", `{"image":{"id":"new"}}`, "https://img/new.jpg"},
		{"no image", `{"message":"Uploaded"}`, ""},
		{"placeholder id ignored", `{"image":{"id":"temp-1","imageUrl":"https://x/y.jpg"}}`, ""},
		{"unknown identity", `{"image":{"id":"other"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := createdImage(&apiclient.Response{Raw: json.RawMessage(tt.body)}, items)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("createdImage = %+v, want nil", got)
			case tt.want != "" && (got == nil || got.ImageURL != tt.want):
				t.Errorf("createdImage = %+v, want url %s", got, tt.want)
			}
		})
	}
}
