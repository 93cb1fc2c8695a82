package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(filepath.Join(dir, "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	bdg, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"badger": bdg,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
				t.Fatalf("Get missing = ok %v, err %v", ok, err)
			}

			if err := s.Set(ctx, KeyToken, []byte("abc")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, ok, err := s.Get(ctx, KeyToken)
			if err != nil || !ok || string(v) != "abc" {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}

			if err := s.Set(ctx, KeyToken, []byte("def")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, _, _ = s.Get(ctx, KeyToken)
			if string(v) != "def" {
				t.Errorf("after overwrite = %q", v)
			}

			if err := s.Remove(ctx, KeyToken); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok, _ := s.Get(ctx, KeyToken); ok {
				t.Error("key still present after Remove")
			}
			if err := s.Remove(ctx, "never-set"); err != nil {
				t.Errorf("Remove missing key: %v", err)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	m.Set(ctx, "k", buf)
	buf[0] = 'x'
	v, _, _ := m.Get(ctx, "k")
	if string(v) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", v)
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	m.Close()
	if err := m.Set(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Set(ctx, KeyNotices, []byte(`{"data":[],"timestamp":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, ok, err := s.Get(ctx, KeyNotices)
	if err != nil || !ok || string(v) != `{"data":[],"timestamp":1}` {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
	ver, err := s.SchemaVersion()
	if err != nil || ver != SchemaVersion {
		t.Errorf("SchemaVersion = %d, %v", ver, err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("redis", t.TempDir(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := Open("memory", "", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(memory) = %T", s)
	}
}
