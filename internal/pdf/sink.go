package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// tempMaxAge bounds how long viewer temp files are kept.
const tempMaxAge = 24 * time.Hour

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// SystemSink saves documents into a directory and hands links to the
// operating system's opener.
type SystemSink struct {
	Dir          string
	HTTP         *http.Client
	PrintCommand string
	Run          Runner
	// Opener overrides the platform opener command.
	Opener string
	// TempDir holds files materialized for the viewer and the print command.
	TempDir string

	// Saved records the path of the last file written.
	Saved string
}

// NewSystemSink creates a sink writing into dir.
func NewSystemSink(dir, printCommand string, client *http.Client) *SystemSink {
	if client == nil {
		client = http.DefaultClient
	}
	if printCommand == "" {
		printCommand = "lp"
	}
	return &SystemSink{
		Dir:          dir,
		HTTP:         client,
		PrintCommand: printCommand,
		Run:          execRunner,
		TempDir:      filepath.Join(os.TempDir(), "chamber-pdf"),
	}
}

func (s *SystemSink) SaveBlob(_ context.Context, filename string, body io.Reader) error {
	path := filepath.Join(s.Dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.Saved = path
	return nil
}

// SaveLink decodes data URLs into a file. Remote links are handed to the
// opener, which downloads them in the browser.
func (s *SystemSink) SaveLink(ctx context.Context, link, filename string) error {
	if strings.HasPrefix(link, "data:") {
		data, err := DecodeDataURL(link)
		if err != nil {
			return err
		}
		return s.SaveBlob(ctx, filename, bytes.NewReader(data))
	}
	return s.Open(ctx, link)
}

func (s *SystemSink) Open(ctx context.Context, link string) error {
	target := link
	if strings.HasPrefix(link, "data:") {
		path, err := s.tempFile(ctx, link)
		if err != nil {
			return err
		}
		target = path
	}
	name, args := s.openerCommand(target)
	return s.run(ctx, name, args...)
}

// Print fetches or decodes the document to a temp file and sends it to the
// print command. The file is removed once the command returns.
func (s *SystemSink) Print(ctx context.Context, link string) error {
	path, err := s.tempFile(ctx, link)
	if err != nil {
		return err
	}
	defer os.Remove(path)
	return s.run(ctx, s.PrintCommand, path)
}

func (s *SystemSink) run(ctx context.Context, name string, args ...string) error {
	run := s.Run
	if run == nil {
		run = execRunner
	}
	if err := run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *SystemSink) openerCommand(target string) (string, []string) {
	if s.Opener != "" {
		return s.Opener, []string{target}
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// tempFile materializes link as a local file in TempDir. Files the viewer was
// given on earlier runs are pruned once older than tempMaxAge.
func (s *SystemSink) tempFile(ctx context.Context, link string) (string, error) {
	dir := s.TempDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "chamber-pdf")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	pruneTemp(dir, time.Now().Add(-tempMaxAge))

	var body io.Reader
	if strings.HasPrefix(link, "data:") {
		data, err := DecodeDataURL(link)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(data)
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		client := s.HTTP
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("fetch %s: HTTP %d", link, resp.StatusCode)
		}
		body = resp.Body
	}

	f, err := os.CreateTemp(dir, "chamber-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func pruneTemp(dir string, before time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "chamber-") {
			continue
		}
		info, err := e.Info()
		if err == nil && info.ModTime().Before(before) {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

// DecodeDataURL returns the payload of a data: URL.
func DecodeDataURL(link string) ([]byte, error) {
	rest, ok := strings.CutPrefix(link, "data:")
	if !ok {
		return nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return []byte(text), nil
}
