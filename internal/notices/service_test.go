package notices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
)

type fakeAPI struct {
	list    json.RawMessage
	listErr error

	mutErr    error
	lastToken string
	lastForm  apiclient.NoticeForm
	calls     int
}

func (f *fakeAPI) ListNotices(context.Context) (json.RawMessage, error) {
	return f.list, f.listErr
}

func (f *fakeAPI) CreateNotice(_ context.Context, token string, form apiclient.NoticeForm) (*apiclient.Response, error) {
	f.calls++
	f.lastToken, f.lastForm = token, form
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	return &apiclient.Response{Message: "created"}, nil
}

func (f *fakeAPI) UpdateNotice(_ context.Context, token, _ string, form apiclient.NoticeForm) (*apiclient.Response, error) {
	f.calls++
	f.lastToken, f.lastForm = token, form
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	return &apiclient.Response{Message: "updated"}, nil
}

func (f *fakeAPI) DeleteNotice(_ context.Context, token, _ string) (*apiclient.Response, error) {
	f.calls++
	f.lastToken = token
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	return &apiclient.Response{Message: "deleted"}, nil
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T) (*Service, *fakeAPI, *kvstore.Memory, *clock) {
	t.Helper()
	api := &fakeAPI{}
	store := kvstore.NewMemory()
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(api, store, staticToken("tok"), WithClock(clk.now))
	return svc, api, store, clk
}

func TestListFromNetworkWritesCache(t *testing.T) {
	ctx := context.Background()
	svc, api, store, clk := setup(t)
	api.list = json.RawMessage(`[{"id":"1","title":"A"},{"_id":"2","title":"B"}]`)

	got, src := svc.List(ctx)
	if src != SourceNetwork || len(got) != 2 {
		t.Fatalf("List = %d items from %v", len(got), src)
	}

	raw, ok, _ := store.Get(ctx, kvstore.KeyNotices)
	if !ok {
		t.Fatal("cache not written")
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("cache entry: %v", err)
	}
	if entry.Timestamp != clk.t.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", entry.Timestamp, clk.t.UnixMilli())
	}
}

func TestListFallback(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		wantSrc   Source
		wantCount int
	}{
		{"fresh cache", 4 * time.Minute, SourceCache, 1},
		{"just under timeout", 5*time.Minute - time.Millisecond, SourceCache, 1},
		{"expired at timeout", 5 * time.Minute, SourceEmpty, 0},
		{"long expired", time.Hour, SourceEmpty, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, api, _, clk := setup(t)

			api.list = json.RawMessage(`[{"id":"1","title":"A"}]`)
			svc.List(ctx)

			api.list, api.listErr = nil, errors.New("network down")
			clk.t = clk.t.Add(tt.age)

			got, src := svc.List(ctx)
			if src != tt.wantSrc || len(got) != tt.wantCount {
				t.Errorf("List = %d items from %v, want %d from %v", len(got), src, tt.wantCount, tt.wantSrc)
			}
			if got == nil {
				t.Error("List returned nil, want empty slice")
			}
		})
	}
}

func TestListMalformedCacheIsMiss(t *testing.T) {
	ctx := context.Background()
	for name, data := range map[string]string{
		"data object":   `{"id":"1"}`,
		"data is null":  `null`,
		"data a string": `"[]"`,
		"data a number": `42`,
	} {
		t.Run(name, func(t *testing.T) {
			svc, api, store, clk := setup(t)
			api.listErr = errors.New("offline")
			raw := fmt.Sprintf(`{"data":%s,"timestamp":%d}`, data, clk.t.UnixMilli())
			store.Set(ctx, kvstore.KeyNotices, []byte(raw))
			got, src := svc.List(ctx)
			if src != SourceEmpty || len(got) != 0 {
				t.Errorf("List = %v from %v", got, src)
			}
		})
	}

	t.Run("not json", func(t *testing.T) {
		svc, api, store, _ := setup(t)
		api.listErr = errors.New("offline")
		store.Set(ctx, kvstore.KeyNotices, []byte("garbage"))
		if got, src := svc.List(ctx); src != SourceEmpty || len(got) != 0 {
			t.Errorf("List = %v from %v", got, src)
		}
	})
}

func TestListNonArrayResponseFallsBack(t *testing.T) {
	ctx := context.Background()
	svc, api, _, _ := setup(t)
	api.list = json.RawMessage(`[{"id":"1"}]`)
	svc.List(ctx)

	api.list = json.RawMessage(`{"error":"maintenance"}`)
	got, src := svc.List(ctx)
	if src != SourceCache || len(got) != 1 {
		t.Errorf("List = %d items from %v, want cache", len(got), src)
	}
}

func TestListSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	svc, api, _, _ := setup(t)
	api.list = json.RawMessage(`[{"id":"1"}]`)
	svc.List(ctx)

	api.list = json.RawMessage(`[{"id":"2","title":"ok"},{"id":"3","createdAt":"last tuesday"},"junk",{"_id":"4"}]`)
	got, src := svc.List(ctx)
	if src != SourceNetwork {
		t.Fatalf("source = %v, want network", src)
	}
	if len(got) != 2 || got[0].Key() != "2" || got[1].Key() != "4" {
		t.Errorf("List = %+v", got)
	}

	api.listErr = errors.New("offline")
	cached, src := svc.List(ctx)
	if src != SourceCache || len(cached) != 2 {
		t.Errorf("cached List = %d items from %v", len(cached), src)
	}
}

func TestMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(*Service) error{
		"create": func(s *Service) error {
			_, err := s.Create(ctx, Input{Title: "T", Content: "C"})
			return err
		},
		"update": func(s *Service) error {
			_, err := s.Update(ctx, "1", Input{Title: "T", Content: "C", Priority: "high"})
			return err
		},
		"delete": func(s *Service) error {
			_, err := s.Delete(ctx, "1")
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			svc, api, store, _ := setup(t)
			api.list = json.RawMessage(`[]`)
			svc.List(ctx)
			if _, ok, _ := store.Get(ctx, kvstore.KeyNotices); !ok {
				t.Fatal("cache not primed")
			}
			if err := op(svc); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if api.lastToken != "tok" {
				t.Errorf("token = %q", api.lastToken)
			}
			if _, ok, _ := store.Get(ctx, kvstore.KeyNotices); ok {
				t.Error("cache still present after mutation")
			}
		})
	}
}

func TestMutationFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	svc, api, store, _ := setup(t)
	api.list = json.RawMessage(`[]`)
	svc.List(ctx)

	api.mutErr = &apiclient.APIError{Status: 401, Message: "Token is not valid"}
	_, err := svc.Create(ctx, Input{Title: "T", Content: "C"})
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, ok, _ := store.Get(ctx, kvstore.KeyNotices); !ok {
		t.Error("cache cleared on failed mutation")
	}
}

func TestCreateDefaultsPriority(t *testing.T) {
	svc, api, _, _ := setup(t)
	if _, err := svc.Create(context.Background(), Input{Title: "T", Content: "C"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if api.lastForm.Priority != "normal" {
		t.Errorf("priority = %q, want normal", api.lastForm.Priority)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, api, _, _ := setup(t)
	tests := []Input{
		{Content: "C"},
		{Title: "T"},
		{Title: "T", Content: "C", Priority: "P0"},
	}
	for _, in := range tests {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Create(%+v) err = %v, want ErrInvalidInput", in, err)
		}
	}
	if api.calls != 0 {
		t.Errorf("network calls = %d, want 0", api.calls)
	}
}

func TestCacheStatus(t *testing.T) {
	ctx := context.Background()
	svc, api, _, clk := setup(t)
	if st := svc.CacheStatus(ctx); st.Present {
		t.Errorf("status before list = %+v", st)
	}
	api.list = json.RawMessage(`[{"id":"1"},{"id":"2"}]`)
	svc.List(ctx)
	clk.t = clk.t.Add(6 * time.Minute)
	st := svc.CacheStatus(ctx)
	if !st.Present || st.Valid || st.Count != 2 || st.Age != 6*time.Minute {
		t.Errorf("status = %+v", st)
	}
	svc.ClearCache(ctx)
	if st := svc.CacheStatus(ctx); st.Present {
		t.Errorf("status after clear = %+v", st)
	}
}

func TestFind(t *testing.T) {
	svc, api, _, _ := setup(t)
	api.list = json.RawMessage(`[{"id":"1","title":"A"},{"_id":"2","title":"B"}]`)
	n, _, ok := svc.Find(context.Background(), "2")
	if !ok || n.Title != "B" {
		t.Errorf("Find(2) = %+v, %v", n, ok)
	}
	if _, _, ok := svc.Find(context.Background(), "3"); ok {
		t.Error("Find(3) found a notice")
	}
}
