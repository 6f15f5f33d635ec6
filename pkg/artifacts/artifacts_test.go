package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
)

func sampleArtifact() controller.CaptureArtifact {
	return controller.CaptureArtifact{
		Source:      "screen",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
		CapturedAt:  time.Now(),
	}
}

func TestFSStore_SaveAndResolve(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref, err := store.Save(context.Background(), sampleArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Errorf("expected .png reference, got %q", ref)
	}

	data, err := os.ReadFile(store.Path(ref))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("expected png-bytes, got %q", data)
	}
}

func TestFSStore_UniqueRefs(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ref, err := store.Save(context.Background(), sampleArtifact())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}

func TestFSStore_ExtensionByContentType(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		contentType string
		ext         string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"text/plain", ".txt"},
		{"application/json", ".json"},
		{"application/x-weird", ".bin"},
	}
	for _, tc := range testCases {
		a := sampleArtifact()
		a.ContentType = tc.contentType
		ref, err := store.Save(context.Background(), a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasSuffix(ref, tc.ext) {
			t.Errorf("%s: expected suffix %s, got %q", tc.contentType, tc.ext, ref)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	ref, err := store.Save(context.Background(), sampleArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := store.Get(ref)
	if !ok {
		t.Fatal("expected artifact to be stored")
	}
	if a.Source != "screen" {
		t.Errorf("expected source=screen, got %q", a.Source)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 artifact, got %d", store.Len())
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("expected missing ref to report false")
	}
}

func TestDiscard(t *testing.T) {
	ref, err := Discard{}.Save(context.Background(), sampleArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "" {
		t.Errorf("expected empty reference, got %q", ref)
	}
}
