package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Box is a collider size in pixels. A zero width or height means no collider.
type Box struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

type PlayerConfig struct {
	AABB        Box     `yaml:"aabb"`
	RunSpeed    float64 `yaml:"run_speed"`
	JumpSpeed   float64 `yaml:"jump_speed"`
	FallSpeed   float64 `yaml:"fall_speed"`
	Layer       int     `yaml:"layer"`
	Health      int     `yaml:"health"`
	Spritesheet string  `yaml:"spritesheet"`
	Stand       string  `yaml:"stand"`
	Run         string  `yaml:"run"`
	Fall        string  `yaml:"fall"`
}

// Milestone is a respawn point in tile coordinates. The player respawns at
// the furthest milestone it has passed.
type Milestone struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// TileType describes one tile of a tileset. Passage tiles report overlaps but
// never block.
type TileType struct {
	AABB     Box  `yaml:"aabb"`
	Passage  bool `yaml:"passage"`
	Damage   int  `yaml:"damage"`
	Hardness int  `yaml:"hardness"`
	Piercing int  `yaml:"piercing"`
}

type Tileset struct {
	Texture string     `yaml:"texture"`
	Tiles   []TileType `yaml:"tiles"`
}

// Tile places tileset entry ID-1 at tile coordinates X, Y. ID 0 is empty.
type Tile struct {
	ID int `yaml:"id"`
	X  int `yaml:"x"`
	Y  int `yaml:"y"`
}

// ScriptRef attaches a script to an entity for the listed events.
type ScriptRef struct {
	Path   string         `yaml:"path"`
	Events []string       `yaml:"events"`
	Vars   map[string]any `yaml:"vars"`
}

// EventCollide is the only script event the engine raises.
const EventCollide = "collide"

type EntityConfig struct {
	Spritesheet string      `yaml:"spritesheet"`
	Sprite      string      `yaml:"sprite"`
	X           int         `yaml:"x"`
	Y           int         `yaml:"y"`
	AABB        Box         `yaml:"aabb"`
	Scripts     []ScriptRef `yaml:"scripts"`
}

type Layer struct {
	Parallax float64        `yaml:"parallax"`
	Tileset  Tileset        `yaml:"tileset"`
	Tiles    []Tile         `yaml:"tiles"`
	Entities []EntityConfig `yaml:"entities"`
}

// Level is the description a scene is seeded from.
type Level struct {
	Name       string       `yaml:"name"`
	Gravity    float64      `yaml:"gravity"`
	Width      int          `yaml:"width"`
	Height     int          `yaml:"height"`
	TileWidth  int          `yaml:"tile_width"`
	TileHeight int          `yaml:"tile_height"`
	Player     PlayerConfig `yaml:"player"`
	Milestones []Milestone  `yaml:"milestones"`
	Layers     []Layer      `yaml:"layers"`
}

// LoadLevel loads and validates a level file.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return ParseLevel(raw)
}

func ParseLevel(raw []byte) (*Level, error) {
	lvl := &Level{}
	if err := yaml.Unmarshal(raw, lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	for i := range lvl.Layers {
		if lvl.Layers[i].Parallax == 0 {
			lvl.Layers[i].Parallax = 1
		}
	}
	if lvl.Player.Health == 0 {
		lvl.Player.Health = 1
	}
	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("level %q: %w", lvl.Name, err)
	}
	return lvl, nil
}

// PixelWidth is the width of the level in world units.
func (l *Level) PixelWidth() float64 { return float64(l.Width * l.TileWidth) }

func (l *Level) PixelHeight() float64 { return float64(l.Height * l.TileHeight) }

// TileCentre converts tile coordinates to the world position of the tile centre.
func (l *Level) TileCentre(x, y int) (float64, float64) {
	return float64(x*l.TileWidth) + float64(l.TileWidth)/2,
		float64(y*l.TileHeight) + float64(l.TileHeight)/2
}

// Validate reports every structural problem found in the level.
func (l *Level) Validate() error {
	var errs []error
	if l.Width <= 0 || l.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d must be positive", l.Width, l.Height))
	}
	if l.TileWidth <= 0 || l.TileHeight <= 0 {
		errs = append(errs, fmt.Errorf("tile size %dx%d must be positive", l.TileWidth, l.TileHeight))
	}
	if l.Player.AABB.Empty() {
		errs = append(errs, errors.New("player aabb must be positive"))
	}
	if l.Player.FallSpeed < 0 || l.Player.RunSpeed < 0 || l.Player.JumpSpeed < 0 {
		errs = append(errs, errors.New("player speeds must not be negative"))
	}
	if len(l.Milestones) == 0 {
		errs = append(errs, errors.New("at least one milestone is required"))
	}
	for i, m := range l.Milestones {
		if m.X < 0 || m.X >= l.Width || m.Y < 0 || m.Y >= l.Height {
			errs = append(errs, fmt.Errorf("milestone %d at (%d,%d) is outside the level", i, m.X, m.Y))
		}
		if i > 0 && m.X < l.Milestones[i-1].X {
			errs = append(errs, fmt.Errorf("milestone %d is left of milestone %d", i, i-1))
		}
	}
	for li, layer := range l.Layers {
		for _, t := range layer.Tiles {
			if t.ID < 0 || t.ID > len(layer.Tileset.Tiles) {
				errs = append(errs, fmt.Errorf("layer %d: tile (%d,%d) has unknown id %d", li, t.X, t.Y, t.ID))
			}
		}
		for ei, e := range layer.Entities {
			if e.Spritesheet == "" || e.Sprite == "" {
				errs = append(errs, fmt.Errorf("layer %d entity %d: spritesheet and sprite are required", li, ei))
			}
			for _, s := range e.Scripts {
				if s.Path == "" {
					errs = append(errs, fmt.Errorf("layer %d entity %d: script without path", li, ei))
				}
				for _, ev := range s.Events {
					if ev != EventCollide {
						errs = append(errs, fmt.Errorf("layer %d entity %d: unknown script event %q", li, ei, ev))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}
