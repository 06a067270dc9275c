// Package assets handles scene data loading and caching.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/brickgrid/internal/logger"
)

// ErrNotFound is returned when no data directory holds the requested file.
var ErrNotFound = errors.New("asset not found")

// ErrClosed is returned when a compressed asset is loaded after Close.
var ErrClosed = errors.New("asset manager closed")

// compressed lists the suffixes tried after the plain name, in order.
var compressed = []string{".zst", ".gz"}

// Manager handles asset loading from data directories.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex

	zstd *zstd.Decoder
}

// NewManager creates a new asset manager. A nil cache disables caching.
func NewManager(cache *Cache) (*Manager, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Manager{
		cache: cache,
		zstd:  dec,
	}, nil
}

// AddDir adds a data directory to the manager.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("opening data dir %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening data dir %s: not a directory", path)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, path)
	m.mu.Unlock()

	return nil
}

// Dirs returns the data directories in search order.
func (m *Manager) Dirs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dirs := make([]string, 0, len(m.dirs))
	for i := len(m.dirs) - 1; i >= 0; i-- {
		dirs = append(dirs, m.dirs[i])
	}
	return dirs
}

// Load loads a file from the data directories. If the plain name is missing,
// a .zst or .gz sibling is decompressed instead.
func (m *Manager) Load(name string) ([]byte, error) {
	// Check cache first
	if m.cache != nil {
		if data, ok := m.cache.Get(name); ok {
			return data, nil
		}
	}

	for _, dir := range m.Dirs() {
		data, err := m.readDir(dir, name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if m.cache != nil {
			m.cache.Set(name, data)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// readDir reads name from one directory, trying compressed variants.
func (m *Manager) readDir(dir, name string) ([]byte, error) {
	path := filepath.Join(dir, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	for _, ext := range compressed {
		raw, err := os.ReadFile(path + ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path+ext, err)
		}

		data, err := m.decompress(ext, raw)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path+ext, err)
		}
		logger.Debug("decompressed asset",
			zap.String("path", path+ext),
			zap.Int("compressed", len(raw)),
			zap.Int("size", len(data)))
		return data, nil
	}
	return nil, os.ErrNotExist
}

func (m *Manager) decompress(ext string, raw []byte) ([]byte, error) {
	switch ext {
	case ".zst":
		m.mu.RLock()
		dec := m.zstd
		m.mu.RUnlock()
		if dec == nil {
			return nil, ErrClosed
		}
		return dec.DecodeAll(raw, nil)
	case ".gz":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return nil, fmt.Errorf("unknown compression %q", ext)
	}
}

// Close releases the decoder and clears the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs = nil
	if m.zstd != nil {
		m.zstd.Close()
		m.zstd = nil
	}
	if m.cache != nil {
		m.cache.Clear()
	}
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
