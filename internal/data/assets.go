package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/boxworld/engine/internal/component"
)

var (
	ErrUnknownSheet   = errors.New("unknown spritesheet")
	ErrUnknownEntry   = errors.New("unknown spritesheet entry")
	ErrUnknownTexture = errors.New("unknown texture")
)

// FileEntry names an external file (texture, font). Only the name is used by
// the simulation; paths are kept for tooling.
type FileEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// SpriteEntry is one sprite or animation strip inside a spritesheet. Frames
// of 0 or 1 mean a still sprite; Rate is ticks per frame.
type SpriteEntry struct {
	Name    string `yaml:"name"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Frames  int    `yaml:"frames"`
	Rate    int    `yaml:"rate"`
	OffsetX int    `yaml:"offset_x"`
}

// Animated reports whether the entry has more than one frame.
func (e SpriteEntry) Animated() bool { return e.Frames > 1 }

// Rect is the source rectangle of the entry's first frame.
func (e SpriteEntry) Rect() component.Rect {
	return component.Rect{X: float64(e.X), Y: float64(e.Y), W: float64(e.Width), H: float64(e.Height)}
}

// FrameRect is the source rectangle of frame n.
func (e SpriteEntry) FrameRect(n int) component.Rect {
	r := e.Rect()
	r.X += float64(n * (e.Width + e.OffsetX))
	return r
}

type SpriteSheet struct {
	Name    string        `yaml:"name"`
	Texture string        `yaml:"texture"`
	Entries []SpriteEntry `yaml:"entries"`

	entryIDs map[string]component.EntryID
}

type assetFile struct {
	Textures     []FileEntry   `yaml:"textures"`
	Fonts        []FileEntry   `yaml:"fonts"`
	Spritesheets []SpriteSheet `yaml:"spritesheets"`
}

// AssetTable resolves spritesheet and entry names to stable handles. A sheet's
// handle is its position in the file, an entry's handle its position within
// the sheet.
type AssetTable struct {
	textures map[string]FileEntry
	fonts    map[string]FileEntry
	sheets   []SpriteSheet
	sheetIDs map[string]component.SheetID
}

// LoadAssetTable loads assets.yaml.
func LoadAssetTable(path string) (*AssetTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset table: %w", err)
	}
	return ParseAssetTable(raw)
}

func ParseAssetTable(raw []byte) (*AssetTable, error) {
	var f assetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse asset table: %w", err)
	}
	t := &AssetTable{
		textures: make(map[string]FileEntry, len(f.Textures)),
		fonts:    make(map[string]FileEntry, len(f.Fonts)),
		sheets:   f.Spritesheets,
		sheetIDs: make(map[string]component.SheetID, len(f.Spritesheets)),
	}
	for _, tex := range f.Textures {
		t.textures[tex.Name] = tex
	}
	for _, font := range f.Fonts {
		t.fonts[font.Name] = font
	}
	for i := range t.sheets {
		s := &t.sheets[i]
		if _, dup := t.sheetIDs[s.Name]; dup {
			return nil, fmt.Errorf("asset table: spritesheet %q defined twice", s.Name)
		}
		if s.Texture != "" && len(t.textures) > 0 {
			if _, ok := t.textures[s.Texture]; !ok {
				return nil, fmt.Errorf("asset table: spritesheet %q: %w %q", s.Name, ErrUnknownTexture, s.Texture)
			}
		}
		t.sheetIDs[s.Name] = component.SheetID(i)
		s.entryIDs = make(map[string]component.EntryID, len(s.Entries))
		for j, e := range s.Entries {
			if _, dup := s.entryIDs[e.Name]; dup {
				return nil, fmt.Errorf("asset table: spritesheet %q: entry %q defined twice", s.Name, e.Name)
			}
			if e.Width <= 0 || e.Height <= 0 {
				return nil, fmt.Errorf("asset table: %s/%s: size must be positive", s.Name, e.Name)
			}
			s.entryIDs[e.Name] = component.EntryID(j)
		}
	}
	return t, nil
}

// LookupSheet returns the handle of the named spritesheet.
func (t *AssetTable) LookupSheet(name string) (component.SheetID, error) {
	id, ok := t.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownSheet, name)
	}
	return id, nil
}

// LookupEntry returns the handle of the named entry within a sheet.
func (t *AssetTable) LookupEntry(sheet component.SheetID, name string) (component.EntryID, error) {
	s, ok := t.Sheet(sheet)
	if !ok {
		return component.NoEntry, fmt.Errorf("%w %d", ErrUnknownSheet, sheet)
	}
	id, ok := s.entryIDs[name]
	if !ok {
		return component.NoEntry, fmt.Errorf("%w %s/%s", ErrUnknownEntry, s.Name, name)
	}
	return id, nil
}

func (t *AssetTable) Sheet(id component.SheetID) (*SpriteSheet, bool) {
	if id < 0 || int(id) >= len(t.sheets) {
		return nil, false
	}
	return &t.sheets[id], true
}

// Entry returns the frame metadata behind a handle pair.
func (t *AssetTable) Entry(sheet component.SheetID, entry component.EntryID) (SpriteEntry, bool) {
	s, ok := t.Sheet(sheet)
	if !ok || entry < 0 || int(entry) >= len(s.Entries) {
		return SpriteEntry{}, false
	}
	return s.Entries[entry], true
}

func (t *AssetTable) Texture(name string) (FileEntry, bool) {
	f, ok := t.textures[name]
	return f, ok
}

func (t *AssetTable) Font(name string) (FileEntry, bool) {
	f, ok := t.fonts[name]
	return f, ok
}

// Count returns the number of spritesheets loaded.
func (t *AssetTable) Count() int {
	return len(t.sheets)
}
