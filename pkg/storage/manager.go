package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Artifact is one saved debug file
type Artifact struct {
	Name string
	Path string
	Size int64
}

// Manager writes scrape debug artifacts (screenshots and HTML snapshots)
// into one directory.
type Manager struct {
	outputDir string
	now       func() time.Time
	mu        sync.Mutex
	saved     int
}

// NewManager creates the output directory if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir, now: time.Now}, nil
}

// BaseName returns "<identity>-<unix seconds>" with unsafe characters replaced
func (m *Manager) BaseName(identity string) string {
	name := unsafeName.ReplaceAllString(identity, "_")
	if name == "" {
		name = "profile"
	}
	return fmt.Sprintf("%s-%d", name, m.now().Unix())
}

// SaveScreenshot stores a PNG capture
func (m *Manager) SaveScreenshot(base string, png []byte) (Artifact, error) {
	return m.save(base+".png", bytes.NewReader(png))
}

// SaveHTML stores a rendered document
func (m *Manager) SaveHTML(base, html string) (Artifact, error) {
	return m.save(base+".html", bytes.NewReader([]byte(html)))
}

// save writes through a temp file and renames it into place so readers
// never see a partial artifact.
func (m *Manager) save(name string, r io.Reader) (Artifact, error) {
	filename := filepath.Join(m.outputDir, name)
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create temporary file: %w", err)
	}

	size, err := io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tempFile)
		return Artifact{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return Artifact{}, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return Artifact{}, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return Artifact{Name: name, Path: filename, Size: size}, nil
}

// List returns saved artifacts sorted by name
func (m *Manager) List() ([]Artifact, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".png" && ext != ".html") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name: entry.Name(),
			Path: filepath.Join(m.outputDir, entry.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	return artifacts, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// SavedCount returns how many artifacts this manager wrote
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
