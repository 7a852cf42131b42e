package fs_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rezkam/pomotodo/internal/storage/fs"
)

func BenchmarkFS_SetGet_1MB(b *testing.B) {
	tmpDir, err := os.MkdirTemp("", "pomotodo-bench-*")
	if err != nil {
		b.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := fs.NewStore(tmpDir)
	if err != nil {
		b.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	// Roughly the size of a few thousand tasks with reminders.
	payload := bytes.Repeat([]byte("x"), 1<<20)

	b.ResetTimer()
	for b.Loop() {
		if err := store.Set(ctx, "tasks", payload); err != nil {
			b.Fatalf("set failed: %v", err)
		}
		if _, err := store.Get(ctx, "tasks"); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}
