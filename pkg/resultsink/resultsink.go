// Package resultsink provides execution.Sink implementations: an in-memory
// sink for tests and embedding, a file sink writing one JSON record per
// traversal, and a fan-out combinator. The redis subpackage adds a Redis
// adapter.
package resultsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/angelstreet/virtualpytest-sub017/pkg/execution"
)

// Memory captures results in memory and exposes deterministic snapshots.
type Memory struct {
	mu      sync.RWMutex
	results []execution.Result
}

var _ execution.Sink = (*Memory)(nil)

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{results: make([]execution.Result, 0)}
}

// Publish stores a copy of the result.
func (s *Memory) Publish(ctx context.Context, result *execution.Result) error {
	if result == nil {
		return errors.New("nil result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

// Results returns a snapshot of everything published so far.
func (s *Memory) Results() []execution.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]execution.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Len returns how many results were published.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// File writes each result as an indented JSON document named by its
// traversal id.
type File struct {
	dir string
}

var _ execution.Sink = (*File)(nil)

// NewFile creates a file sink rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Publish writes the result to <dir>/<traversalID>.json.
func (s *File) Publish(ctx context.Context, result *execution.Result) error {
	if result == nil {
		return errors.New("nil result")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(s.dir, result.TraversalID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Path returns where a traversal's record lives.
func (s *File) Path(traversalID string) string {
	return filepath.Join(s.dir, traversalID+".json")
}

// multi fans a result out to several sinks.
type multi struct {
	sinks []execution.Sink
}

// Multi combines sinks; every sink receives every result and errors are
// joined, so one failing sink does not starve the others.
func Multi(sinks ...execution.Sink) execution.Sink {
	return &multi{sinks: sinks}
}

func (s *multi) Publish(ctx context.Context, result *execution.Result) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
