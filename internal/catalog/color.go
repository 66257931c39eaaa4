package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColor возвращается при разборе некорректного цвета
var ErrInvalidColor = errors.New("invalid color")

// Color 24-битный RGB цвет
type Color uint32

// Цвета подсветки превью
const (
	PreviewColor   Color = 0xffffff
	HighlightColor Color = 0xff3b30
)

// ParseColor разбирает "#rrggbb", "0xrrggbb" или "rrggbb"
func ParseColor(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(raw, "#"):
		raw = raw[1:]
	case strings.HasPrefix(raw, "0x"), strings.HasPrefix(raw, "0X"):
		raw = raw[2:]
	}
	if len(raw) != 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color(v), nil
}

// String возвращает цвет в виде "#rrggbb"
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// MarshalText реализует encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// NamedColor элемент палитры
type NamedColor struct {
	Name  string `json:"name" yaml:"name"`
	Color Color  `json:"hex" yaml:"hex"`
}
