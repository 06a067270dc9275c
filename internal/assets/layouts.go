package assets

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brickgrid/internal/engine/terrain"
)

// LayoutFile is the YAML form of the layout libraries.
//
//	libraries:
//	  0:
//	    layouts:
//	      12:
//	        blocks:
//	          - {shape: 1, ground: 0, sound: 3}
type LayoutFile struct {
	Libraries map[int]LibraryEntry `yaml:"libraries"`
}

// LibraryEntry holds the layouts of one library.
type LibraryEntry struct {
	Layouts map[int]LayoutEntry `yaml:"layouts"`
}

// LayoutEntry holds the blocks of one layout.
type LayoutEntry struct {
	Blocks []BlockEntry `yaml:"blocks"`
}

// BlockEntry describes one brick of a layout.
type BlockEntry struct {
	Shape  int  `yaml:"shape"`
	Ground *int `yaml:"ground,omitempty"` // Absent means no ground type
	Sound  int  `yaml:"sound"`
	Sound2 int  `yaml:"sound2,omitempty"`
}

// ErrInvalidBlock is returned for a layout block whose shape or ground type
// does not fit the terrain types.
var ErrInvalidBlock = errors.New("invalid layout block")

// ParseLayouts parses a layout file into terrain libraries keyed by library index.
func ParseLayouts(data []byte) (map[int]terrain.Library, error) {
	var file LayoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing layouts: %w", err)
	}

	libs := make(map[int]terrain.Library, len(file.Libraries))
	for libIndex, entry := range file.Libraries {
		lib := make(terrain.Library, len(entry.Layouts))
		for layoutIndex, layout := range entry.Layouts {
			blocks := make([]terrain.BlockInfo, len(layout.Blocks))
			for i, b := range layout.Blocks {
				if b.Shape < 0 || b.Shape > math.MaxUint8 {
					return nil, fmt.Errorf("%w: library %d layout %d block %d: shape %d",
						ErrInvalidBlock, libIndex, layoutIndex, i, b.Shape)
				}
				gt := terrain.GroundNone
				if b.Ground != nil {
					if *b.Ground < int(terrain.GroundNone) || *b.Ground > int(terrain.GroundWater2) {
						return nil, fmt.Errorf("%w: library %d layout %d block %d: ground %d",
							ErrInvalidBlock, libIndex, layoutIndex, i, *b.Ground)
					}
					gt = terrain.GroundType(*b.Ground)
				}
				blocks[i] = terrain.BlockInfo{
					Shape:      terrain.Shape(b.Shape),
					GroundType: gt,
					Sound:      b.Sound,
					Sound2:     b.Sound2,
				}
			}
			lib[layoutIndex] = &terrain.Layout{Blocks: blocks}
		}
		libs[libIndex] = lib
	}
	return libs, nil
}

// LoadLayouts loads and parses a layout file.
func (m *Manager) LoadLayouts(name string) (map[int]terrain.Library, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	libs, err := ParseLayouts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return libs, nil
}

// OverrideFile is the YAML form of editor brick overrides, keyed by scene
// index and then by "z,y,x" (see terrain.Overrides).
//
//	scenes:
//	  42:
//	    "10,3,7": {layout: -1, block: 0}
type OverrideFile struct {
	Scenes map[int]map[string]OverrideEntry `yaml:"scenes"`
}

// OverrideEntry is one replacement brick. Layout -1 removes the brick.
type OverrideEntry struct {
	Layout int `yaml:"layout"`
	Block  int `yaml:"block"`
}

// ParseOverrides parses an override file and returns the overrides for scene.
// Keys that are not "z,y,x" are rejected.
func ParseOverrides(data []byte, scene int) (terrain.Overrides, error) {
	var file OverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	entries := file.Scenes[scene]
	overrides := make(terrain.Overrides, len(entries))
	for key, e := range entries {
		x, y, z, ok := terrain.ParseOverrideKey(key)
		if !ok {
			return nil, fmt.Errorf("parsing overrides: scene %d: bad key %q", scene, key)
		}
		overrides[terrain.OverrideKey(x, y, z)] = terrain.BlockRef{Layout: e.Layout, Block: e.Block}
	}
	return overrides, nil
}

// LoadOverrides loads the editor overrides of a scene.
func (m *Manager) LoadOverrides(name string, scene int) (terrain.Overrides, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	overrides, err := ParseOverrides(data, scene)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return overrides, nil
}
