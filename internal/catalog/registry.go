package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBrickType возвращается при обращении к незарегистрированному типу
var ErrUnknownBrickType = errors.New("unknown brick type")

// Catalog упорядоченный реестр типов кирпичей и палитры.
// После создания не изменяется, поэтому безопасен для конкурентного чтения.
type Catalog struct {
	types   map[string]*BrickType
	order   []*BrickType
	palette []NamedColor
}

// New собирает каталог из описаний; порядок сохраняется
func New(types []BrickType, palette []NamedColor) (*Catalog, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: catalog has no types", ErrInvalidBrickType)
	}

	c := &Catalog{
		types:   make(map[string]*BrickType, len(types)),
		order:   make([]*BrickType, 0, len(types)),
		palette: append([]NamedColor(nil), palette...),
	}

	for i := range types {
		bt := types[i]
		if err := bt.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.types[bt.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidBrickType, bt.ID)
		}
		ptr := &bt
		c.types[bt.ID] = ptr
		c.order = append(c.order, ptr)
	}

	return c, nil
}

// Default возвращает стандартный набор: кирпичи 1x1..2x4, пластины 1x1 и 1x2
func Default() *Catalog {
	c, err := New(DefaultTypes(), DefaultPalette())
	if err != nil {
		// Встроенный набор обязан быть корректным
		panic(err)
	}
	return c
}

// DefaultTypes возвращает встроенные описания типов
func DefaultTypes() []BrickType {
	return []BrickType{
		{ID: "b11", Name: "Kostka", Width: 1, Length: 1, Category: CategoryBrick},
		{ID: "b21", Name: "Kostka", Width: 2, Length: 1, Category: CategoryBrick},
		{ID: "b41", Name: "Kostka", Width: 4, Length: 1, Category: CategoryBrick},
		{ID: "b22", Name: "Kostka", Width: 2, Length: 2, Category: CategoryBrick},
		{ID: "b24", Name: "Kostka", Width: 2, Length: 4, Category: CategoryBrick},
		{ID: "p11", Name: "Plate", Width: 1, Length: 1, Category: CategoryPlate},
		{ID: "p12", Name: "Plate", Width: 1, Length: 2, Category: CategoryPlate},
	}
}

// DefaultPalette возвращает встроенную палитру
func DefaultPalette() []NamedColor {
	return []NamedColor{
		{Name: "Red", Color: 0xff3b30},
		{Name: "Blue", Color: 0x007aff},
		{Name: "Green", Color: 0x34c759},
		{Name: "Yellow", Color: 0xffcc00},
		{Name: "Purple", Color: 0xaf52de},
		{Name: "White", Color: 0xffffff},
		{Name: "Black", Color: 0x222222},
		{Name: "Orange", Color: 0xff9500},
	}
}

// Get возвращает тип по ID
func (c *Catalog) Get(id string) (*BrickType, bool) {
	bt, ok := c.types[id]
	return bt, ok
}

// Lookup возвращает тип или ошибку ErrUnknownBrickType
func (c *Catalog) Lookup(id string) (*BrickType, error) {
	bt, ok := c.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBrickType, id)
	}
	return bt, nil
}

// Types возвращает типы в порядке регистрации
func (c *Catalog) Types() []*BrickType {
	return append([]*BrickType(nil), c.order...)
}

// First возвращает первый зарегистрированный тип
func (c *Catalog) First() *BrickType {
	return c.order[0]
}

// Palette возвращает копию палитры
func (c *Catalog) Palette() []NamedColor {
	return append([]NamedColor(nil), c.palette...)
}

// ColorByName ищет цвет палитры по имени
func (c *Catalog) ColorByName(name string) (Color, bool) {
	for _, nc := range c.palette {
		if nc.Name == name {
			return nc.Color, true
		}
	}
	return 0, false
}

// fileFormat структура YAML-файла каталога
type fileFormat struct {
	Types   []BrickType  `yaml:"types"`
	Palette []NamedColor `yaml:"palette"`
}

// LoadFile читает каталог из YAML. Пустая палитра заменяется встроенной.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML-описание каталога
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Palette) == 0 {
		f.Palette = DefaultPalette()
	}
	return New(f.Types, f.Palette)
}
