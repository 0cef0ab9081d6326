package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := SetInt(ctx, s, "count", 7); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	n, err := GetInt(ctx, s, "count")
	if err != nil || n != 7 {
		t.Errorf("Expected 7, got %d (%v)", n, err)
	}

	if err := SetBool(ctx, s, "rated", true); err != nil {
		t.Fatalf("SetBool failed: %v", err)
	}
	b, err := GetBool(ctx, s, "rated")
	if err != nil || !b {
		t.Errorf("Expected true, got %v (%v)", b, err)
	}

	if err := s.Delete(ctx, "count", "rated", "never-set"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := GetInt(ctx, s, "count"); n != 0 {
		t.Errorf("Expected 0 after delete, got %d", n)
	}
	if b, _ := GetBool(ctx, s, "rated"); b {
		t.Error("Expected false after delete")
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "rating.yaml")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	exerciseStore(t, f)
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rating.yaml")
	ctx := context.Background()

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if err := SetInt(ctx, f, "exportCount", 4); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected store file to exist: %v", err)
	}
	if !strings.Contains(string(data), "exportCount") {
		t.Errorf("Expected key in file, got %q", data)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if n, _ := GetInt(ctx, reopened, "exportCount"); n != 4 {
		t.Errorf("Expected 4 after reopen, got %d", n)
	}
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("- not\n- a map\n"), 0644)
	if _, err := OpenFile(path); err == nil {
		t.Error("Expected error for non-map document")
	}
}

func TestTypedHelpersRejectGarbage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Set(ctx, "n", "seven")
	if _, err := GetInt(ctx, m, "n"); err == nil {
		t.Error("Expected integer parse error")
	}
	if _, err := GetBool(ctx, m, "n"); err == nil {
		t.Error("Expected boolean parse error")
	}
}

func TestRedisKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	r := NewRedisWithClient(client, "")
	if got := r.Key("exportCount"); got != "blurface:exportCount" {
		t.Errorf("Expected default prefix, got %q", got)
	}
	r = NewRedisWithClient(client, "app:")
	if got := r.Key("hasRatedApp"); got != "app:hasRatedApp" {
		t.Errorf("Expected custom prefix, got %q", got)
	}
	if err := r.Delete(context.Background()); err != nil {
		t.Errorf("Expected empty delete to be a no-op, got %v", err)
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedis(ctx, "127.0.0.1:1", ""); err == nil {
		t.Error("Expected ping failure for unreachable server")
	}
}

func BenchmarkMemory(b *testing.B) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < b.N; i++ {
		SetInt(ctx, m, "k", i)
		GetInt(ctx, m, "k")
	}
}
