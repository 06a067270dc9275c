package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/brickgrid/internal/engine/terrain"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func newManager(t *testing.T, cache *Cache, dirs ...string) *Manager {
	t.Helper()
	m, err := NewManager(cache)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	for _, dir := range dirs {
		require.NoError(t, m.AddDir(dir))
	}
	return m
}

func TestManager_LoadPriority(t *testing.T) {
	base, mod := t.TempDir(), t.TempDir()
	writeFile(t, base, "grids/a.gr2", []byte("base-a"))
	writeFile(t, base, "grids/b.gr2", []byte("base-b"))
	writeFile(t, mod, "grids/a.gr2", []byte("mod-a"))

	m := newManager(t, nil, base, mod)
	assert.Equal(t, []string{mod, base}, m.Dirs())

	data, err := m.Load("grids/a.gr2")
	require.NoError(t, err)
	assert.Equal(t, "mod-a", string(data))

	data, err = m.Load("grids/b.gr2")
	require.NoError(t, err)
	assert.Equal(t, "base-b", string(data))

	_, err = m.Load("grids/c.gr2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LoadCompressed(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 1024)
	writeFile(t, dir, "z.gr2.zst", zstdBytes(t, payload))
	writeFile(t, dir, "g.gr2.gz", gzipBytes(t, payload))
	writeFile(t, dir, "bad.gr2.zst", []byte("not zstd"))

	m := newManager(t, nil, dir)

	data, err := m.Load("z.gr2")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	data, err = m.Load("g.gr2")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = m.Load("bad.gr2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestManager_LoadCompressedAfterClose(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.gr2.zst", zstdBytes(t, []byte("payload")))
	writeFile(t, dir, "plain.gr2", []byte("plain"))

	m := newManager(t, NewCache(), dir)
	m.Close()
	require.NoError(t, m.AddDir(dir))

	var err error
	assert.NotPanics(t, func() { _, err = m.Load("z.gr2") })
	assert.ErrorIs(t, err, ErrClosed)

	data, err := m.Load("plain.gr2")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))
}

func TestManager_Cache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x", []byte("one"))

	cache := NewCache()
	m := newManager(t, cache, dir)

	_, err := m.Load("x")
	require.NoError(t, err)

	// Served from cache after the file changes.
	writeFile(t, dir, "x", []byte("two"))
	data, err := m.Load("x")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	cache.Delete("x")
	data, err = m.Load("x")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestManager_AddDirErrors(t *testing.T) {
	m := newManager(t, nil)
	assert.Error(t, m.AddDir(filepath.Join(t.TempDir(), "missing")))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, m.AddDir(file))
}

func TestCache_Clear(t *testing.T) {
	c := NewCache()
	c.Set("a", []byte("1"))
	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("a")
	assert.False(t, ok)
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, 1, misses)
}

const layoutsYAML = `
libraries:
  0:
    layouts:
      0:
        blocks:
          - {shape: 1, ground: 0, sound: 1}
          - {shape: 2, ground: 9, sound: 2, sound2: 7}
      5:
        blocks:
          - {shape: 1}
  3:
    layouts: {}
`

func TestParseLayouts(t *testing.T) {
	libs, err := ParseLayouts([]byte(layoutsYAML))
	require.NoError(t, err)
	require.Len(t, libs, 2)

	layout, ok := libs[0].Layout(0)
	require.True(t, ok)
	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, terrain.BlockInfo{Shape: terrain.ShapeFlat, GroundType: terrain.GroundNormalFloor, Sound: 1}, layout.Blocks[0])
	assert.Equal(t, terrain.BlockInfo{Shape: terrain.ShapeRampZPos, GroundType: terrain.GroundLava, Sound: 2, Sound2: 7}, layout.Blocks[1])

	plain, ok := libs[0].Layout(5)
	require.True(t, ok)
	assert.Equal(t, terrain.GroundNone, plain.Blocks[0].GroundType)

	_, ok = libs[3].Layout(0)
	assert.False(t, ok)

	_, err = ParseLayouts([]byte("libraries: [1, 2"))
	assert.Error(t, err)
}

func TestParseLayouts_InvalidBlock(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"ground too large", "{shape: 1, ground: 300}"},
		{"ground past last type", "{shape: 1, ground: 16}"},
		{"ground below none", "{shape: 1, ground: -2}"},
		{"shape too large", "{shape: 258}"},
		{"negative shape", "{shape: -1}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := "libraries: {0: {layouts: {4: {blocks: [" + tc.block + "]}}}}"
			libs, err := ParseLayouts([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidBlock)
			assert.Nil(t, libs)
		})
	}

	libs, err := ParseLayouts([]byte("libraries: {0: {layouts: {4: {blocks: [{shape: 255, ground: 15}, {shape: 0, ground: -1}]}}}}"))
	require.NoError(t, err)
	layout, ok := libs[0].Layout(4)
	require.True(t, ok)
	assert.Equal(t, terrain.GroundWater2, layout.Blocks[0].GroundType)
	assert.Equal(t, terrain.Shape(255), layout.Blocks[0].Shape)
	assert.Equal(t, terrain.GroundNone, layout.Blocks[1].GroundType)
}

func TestParseOverrides(t *testing.T) {
	data := []byte(`
scenes:
  42:
    "10,3,7": {layout: -1, block: 0}
    " 1, 2, 3": {layout: 4, block: 9}
  43:
    "0,0,0": {layout: 1, block: 1}
`)
	overrides, err := ParseOverrides(data, 42)
	require.NoError(t, err)
	assert.Equal(t, terrain.Overrides{
		"10,3,7": terrain.NoBlock,
		"1,2,3":  {Layout: 4, Block: 9},
	}, overrides)

	none, err := ParseOverrides(data, 7)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = ParseOverrides([]byte(`scenes: {1: {"1,2": {layout: 0}}}`), 1)
	assert.Error(t, err)
}

func TestManager_LoadLayoutsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "layouts.yaml.gz", gzipBytes(t, []byte(layoutsYAML)))
	writeFile(t, dir, "editor.yaml", []byte(`scenes: {2: {"1,1,1": {layout: -1}}}`))
	writeFile(t, dir, "broken.yaml", []byte("libraries: ["))

	m := newManager(t, NewCache(), dir)

	libs, err := m.LoadLayouts("layouts.yaml")
	require.NoError(t, err)
	assert.Len(t, libs, 2)

	overrides, err := m.LoadOverrides("editor.yaml", 2)
	require.NoError(t, err)
	assert.Len(t, overrides, 1)

	_, err = m.LoadLayouts("broken.yaml")
	assert.Error(t, err)
	_, err = m.LoadOverrides("missing.yaml", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
