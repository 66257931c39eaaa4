package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Default(t *testing.T) {
	c := Default()

	types := c.Types()
	require.Len(t, types, 7, "Встроенный каталог содержит 7 типов")
	assert.Equal(t, "b11", c.First().ID)

	p11, ok := c.Get("p11")
	require.True(t, ok)
	assert.InDelta(t, PlateHeight, p11.Height(), 1e-9)

	b24, ok := c.Get("b24")
	require.True(t, ok)
	assert.Equal(t, 2.0, b24.Size().X)
	assert.Equal(t, 4.0, b24.Size().Z)
	assert.InDelta(t, BrickHeight, b24.Size().Y, 1e-9)

	again, _ := c.Get("p11")
	assert.Same(t, p11, again, "Тип разделяется по указателю")

	blue, ok := c.ColorByName("Blue")
	require.True(t, ok)
	assert.Equal(t, Color(0x007aff), blue)
}

func TestCatalog_Lookup(t *testing.T) {
	c := Default()
	_, err := c.Lookup("x99")
	assert.ErrorIs(t, err, ErrUnknownBrickType)
}

func TestCatalog_RejectsInvalid(t *testing.T) {
	_, err := New([]BrickType{{ID: "a", Width: 0, Length: 1, Category: CategoryBrick}}, nil)
	assert.ErrorIs(t, err, ErrInvalidBrickType)

	_, err = New([]BrickType{{ID: "a", Width: 1, Length: 1, Category: "tile"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidBrickType)

	_, err = New([]BrickType{
		{ID: "a", Width: 1, Length: 1, Category: CategoryBrick},
		{ID: "a", Width: 2, Length: 1, Category: CategoryBrick},
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidBrickType, "Повторный ID должен отклоняться")
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
types:
  - {id: t31, name: Long, w: 3, l: 1, type: brick}
  - {id: t22, name: Tile, w: 2, l: 2, type: plate}
palette:
  - {name: Grey, hex: "#808080"}
  - {name: Teal, hex: 0x008080}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)

	require.Len(t, c.Types(), 2)
	t22, ok := c.Get("t22")
	require.True(t, ok)
	assert.Equal(t, CategoryPlate, t22.Category)

	palette := c.Palette()
	require.Len(t, palette, 2)
	assert.Equal(t, Color(0x808080), palette[0].Color)
	assert.Equal(t, Color(0x008080), palette[1].Color)
}

func TestCatalog_ParseDefaultsPalette(t *testing.T) {
	c, err := Parse([]byte("types:\n  - {id: a, w: 1, l: 1, type: brick}\n"))
	require.NoError(t, err)
	assert.Len(t, c.Palette(), len(DefaultPalette()))
}

func TestColor_ParseAndFormat(t *testing.T) {
	for _, in := range []string{"#ff3b30", "0xff3b30", "ff3b30", " #FF3B30 "} {
		c, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, Color(0xff3b30), c)
	}
	assert.Equal(t, "#007aff", Color(0x007aff).String())

	_, err := ParseColor("#12345")
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, err = ParseColor("#zzzzzz")
	assert.ErrorIs(t, err, ErrInvalidColor)

	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#222222")))
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#222222", string(text))
}
