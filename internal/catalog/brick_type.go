package catalog

import (
	"errors"
	"fmt"

	"github.com/annel0/brick-sandbox/internal/vec"
)

// Номинальные высоты элементов
const (
	BrickHeight = 1.2
	PlateHeight = 0.4
)

// Геометрия шипов на верхней грани: один шип на клетку основания
const (
	StudRadius = 0.35
	StudHeight = 0.15
)

// ErrInvalidBrickType возвращается при некорректном описании типа
var ErrInvalidBrickType = errors.New("invalid brick type")

// Category определяет семейство элемента и его номинальную высоту
type Category string

const (
	CategoryBrick Category = "brick"
	CategoryPlate Category = "plate"
)

// Height возвращает номинальную высоту категории (0 для неизвестной)
func (c Category) Height() float64 {
	switch c {
	case CategoryBrick:
		return BrickHeight
	case CategoryPlate:
		return PlateHeight
	default:
		return 0
	}
}

// Valid проверяет, известна ли категория
func (c Category) Valid() bool {
	return c == CategoryBrick || c == CategoryPlate
}

// BrickType неизменяемое описание типа кирпича.
// Все размещённые экземпляры одного типа ссылаются на один и тот же указатель.
type BrickType struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Width    int      `json:"w" yaml:"w"` // клеток по X
	Length   int      `json:"l" yaml:"l"` // клеток по Z
	Category Category `json:"type" yaml:"type"`
}

// Height возвращает номинальную высоту типа
func (bt *BrickType) Height() float64 {
	return bt.Category.Height()
}

// Size возвращает габариты корпуса (w × h × l)
func (bt *BrickType) Size() vec.Vec3Float {
	return vec.Vec3Float{X: float64(bt.Width), Y: bt.Height(), Z: float64(bt.Length)}
}

// Validate проверяет описание типа
func (bt *BrickType) Validate() error {
	if bt.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidBrickType)
	}
	if bt.Width < 1 || bt.Length < 1 {
		return fmt.Errorf("%w: %s has footprint %dx%d", ErrInvalidBrickType, bt.ID, bt.Width, bt.Length)
	}
	if !bt.Category.Valid() {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidBrickType, bt.ID, bt.Category)
	}
	return nil
}

// String возвращает краткое описание вида "b21 2x1 brick"
func (bt *BrickType) String() string {
	return fmt.Sprintf("%s %dx%d %s", bt.ID, bt.Width, bt.Length, bt.Category)
}
