package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write routed through the artifact writer.
// Path is slash separated and relative to the output root.
type writeFileRequest struct {
	Path     string
	Content  io.Reader
	Category writeCategory
	Checksum string
}

// artifactWriter abstracts where generator outputs land.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	RemoveAll(ctx context.Context) error
}

func newArtifactWriter(root string, dryRun bool) artifactWriter {
	fsw := &fsWriter{root: root}
	if dryRun {
		return noopWriter{source: fsw}
	}
	return fsw
}

// fsWriter writes below root. Each file is written to a temporary sibling and
// renamed into place so readers never observe a partial page.
type fsWriter struct {
	root string
}

func (w *fsWriter) abs(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimLeft(rel, "/")))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("generator: output path %q escapes the output directory", rel)
	}
	if cleaned == "." {
		return w.root, nil
	}
	return filepath.Join(w.root, cleaned), nil
}

func (w *fsWriter) EnsureDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.abs(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

func (w *fsWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.abs(req.Path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, req.Content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("generator: write %s: %w", req.Path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("generator: write %s: %w", req.Path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("generator: write %s: %w", req.Path, err)
	}
	return nil
}

func (w *fsWriter) ReadFile(_ context.Context, path string) ([]byte, error) {
	full, err := w.abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (w *fsWriter) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// noopWriter discards writes for dry runs. Reads still go to source so a dry
// run sees the manifest of the previous build.
type noopWriter struct {
	source artifactWriter
}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (w noopWriter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if w.source == nil {
		return nil, nil
	}
	return w.source.ReadFile(ctx, path)
}

func (noopWriter) RemoveAll(context.Context) error { return nil }

// memoryWriter keeps artifacts in memory. Callers embedding the generator
// select it with WithMemoryOutput.
type memoryWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{files: map[string][]byte{}}
}

func (w *memoryWriter) EnsureDir(context.Context, string) error { return nil }

func (w *memoryWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[strings.TrimLeft(req.Path, "/")] = data
	return nil
}

func (w *memoryWriter) ReadFile(_ context.Context, path string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, ok := w.files[strings.TrimLeft(path, "/")]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (w *memoryWriter) RemoveAll(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = map[string][]byte{}
	return nil
}

// Files returns a copy of every artifact written so far.
func (w *memoryWriter) Files() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.files))
	for key, value := range w.files {
		out[key] = string(value)
	}
	return out
}
