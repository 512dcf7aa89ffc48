package certificate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/course"
)

// Sink stores rendered certificates.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// DirSink writes certificates as files in Dir.
type DirSink struct {
	Dir string
}

// Put writes data to Dir/name, creating Dir if needed.
func (s DirSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, filepath.Base(name)), data, 0o644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	return nil
}

// MemorySink keeps certificates in memory, keyed by stored name.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// Put stores data under name, replacing any earlier certificate.
func (s *MemorySink) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	s.files[name] = data
	s.mu.Unlock()
	return nil
}

// Get returns the certificate stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	return data, ok
}

// Names returns the stored file names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset drops every stored certificate.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.files = make(map[string][]byte)
	s.mu.Unlock()
}

// Generator renders a candidate's certificate and stores it in Sink. It
// plugs the renderer into a batch run.
type Generator struct {
	Renderer *Renderer
	Sink     Sink
}

var _ batch.Generator = (*Generator)(nil)

// Generate implements batch.Generator.
func (g *Generator) Generate(ctx context.Context, c batch.Candidate, crs course.Course) error {
	data, err := g.Renderer.Render(ctx, c.Name, crs)
	if err != nil {
		return err
	}
	return g.Sink.Put(ctx, StoredName(c.ID, c.Name, crs), data)
}
