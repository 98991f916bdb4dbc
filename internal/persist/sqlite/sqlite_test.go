package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPutGetRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	want := []byte(`{"schema_version":1,"data":[]}`)
	if err := st.Put(ctx, "members", want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := st.Get(ctx, "members")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("key not found after put")
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestPutOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Put(ctx, "config", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := st.Put(ctx, "config", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, found, err := st.Get(ctx, "config")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("got %s, want latest value", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	st := newTestStore(t)

	got, found, err := st.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found || got != nil {
		t.Fatalf("missing key: got=%v found=%v, want nil and false", got, found)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	st, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := st.Put(ctx, "expenses", []byte(`[1,2,3]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	got, found, err := st2.Get(ctx, "expenses")
	if err != nil || !found {
		t.Fatalf("get after reopen: found=%v err=%v", found, err)
	}
	if string(got) != `[1,2,3]` {
		t.Fatalf("got %s after reopen", got)
	}
}
