// Package artifacts persists captured device evidence and hands back opaque
// references. The engine only emits references; whoever assembles reports
// resolves them later.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
)

// Store persists capture artifacts.
type Store interface {
	// Save persists one artifact and returns its reference. References are
	// opaque to the engine.
	Save(ctx context.Context, artifact controller.CaptureArtifact) (string, error)
}

// FSStore writes artifacts under a base directory, one file per artifact.
// The returned reference is the file name, unique per save.
type FSStore struct {
	dir string
}

// NewFSStore creates the base directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Save writes the artifact to disk.
func (s *FSStore) Save(ctx context.Context, artifact controller.CaptureArtifact) (string, error) {
	ref := uuid.NewString() + extFor(artifact.ContentType)
	path := filepath.Join(s.dir, ref)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return ref, nil
}

// Path resolves a reference returned by Save to its location on disk.
func (s *FSStore) Path(ref string) string {
	return filepath.Join(s.dir, ref)
}

// MemoryStore keeps artifacts in memory. Meant for tests and dry runs.
type MemoryStore struct {
	mu        sync.Mutex
	artifacts map[string]controller.CaptureArtifact
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string]controller.CaptureArtifact)}
}

// Save records the artifact under a fresh reference.
func (s *MemoryStore) Save(ctx context.Context, artifact controller.CaptureArtifact) (string, error) {
	ref := uuid.NewString()
	s.mu.Lock()
	s.artifacts[ref] = artifact
	s.mu.Unlock()
	return ref, nil
}

// Get returns a stored artifact by reference.
func (s *MemoryStore) Get(ref string) (controller.CaptureArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[ref]
	return a, ok
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}

// Discard drops every artifact and returns empty references. Used when a
// caller wants verification outcomes without evidence retention.
type Discard struct{}

// Save ignores the artifact.
func (Discard) Save(context.Context, controller.CaptureArtifact) (string, error) {
	return "", nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "text/plain":
		return ".txt"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}
