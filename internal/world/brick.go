package world

import (
	"fmt"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
	"github.com/google/uuid"
)

// BrickID уникальный идентификатор размещённого кирпича
type BrickID string

// PartID идентификатор отображаемой части кирпича (корпус или шип)
type PartID string

// NewBrickID генерирует новый идентификатор
func NewBrickID() BrickID {
	return BrickID(uuid.NewString())
}

// PlacedBrick кирпич, зафиксированный в сцене.
// Принадлежит BrickIndex; история держит только ссылку на него.
type PlacedBrick struct {
	ID       BrickID
	Type     *catalog.BrickType
	Position vec.Vec3Float
	Color    catalog.Color
}

// Part отображаемая часть составной формы кирпича
type Part struct {
	ID  PartID
	Box physics.AABB
}

// Height возвращает номинальную высоту кирпича
func (b *PlacedBrick) Height() float64 {
	return b.Type.Height()
}

// Bounds возвращает габарит корпуса без шипов
func (b *PlacedBrick) Bounds() physics.AABB {
	return physics.BoxAt(b.Position, b.Type.Size())
}

// BodyPartID идентификатор корпуса кирпича
func (b *PlacedBrick) BodyPartID() PartID {
	return BodyPartOf(b.ID)
}

// BodyPartOf идентификатор корпуса кирпича с данным ID
func BodyPartOf(id BrickID) PartID {
	return PartID(fmt.Sprintf("%s/body", id))
}

// StudPartID идентификатор шипа над клеткой (x, z) основания
func (b *PlacedBrick) StudPartID(x, z int) PartID {
	return PartID(fmt.Sprintf("%s/stud/%d/%d", b.ID, x, z))
}

// Parts строит составную форму: корпус и по одному шипу на клетку основания.
// Цилиндрический шип аппроксимируется описанной коробкой.
func (b *PlacedBrick) Parts() []Part {
	bt := b.Type
	h := bt.Height()
	parts := make([]Part, 0, 1+bt.Width*bt.Length)
	parts = append(parts, Part{ID: b.BodyPartID(), Box: b.Bounds()})

	offsetX := float64(bt.Width-1) / 2
	offsetZ := float64(bt.Length-1) / 2
	studSize := vec.Vec3Float{X: 2 * catalog.StudRadius, Y: catalog.StudHeight, Z: 2 * catalog.StudRadius}

	for x := 0; x < bt.Width; x++ {
		for z := 0; z < bt.Length; z++ {
			center := vec.Vec3Float{
				X: b.Position.X - offsetX + float64(x),
				Y: b.Position.Y + (h+catalog.StudHeight)/2,
				Z: b.Position.Z - offsetZ + float64(z),
			}
			parts = append(parts, Part{ID: b.StudPartID(x, z), Box: physics.BoxAt(center, studSize)})
		}
	}
	return parts
}

// Snapshot копия данных кирпича для внешних потребителей
type Snapshot struct {
	ID       BrickID       `json:"id"`
	Type     string        `json:"type"`
	Width    int           `json:"w"`
	Length   int           `json:"l"`
	Category string        `json:"category"`
	Position vec.Vec3Float `json:"position"`
	Size     vec.Vec3Float `json:"size"`
	Color    catalog.Color `json:"color"`
}

// Snapshot возвращает копию данных кирпича
func (b *PlacedBrick) Snapshot() Snapshot {
	return Snapshot{
		ID:       b.ID,
		Type:     b.Type.ID,
		Width:    b.Type.Width,
		Length:   b.Type.Length,
		Category: string(b.Type.Category),
		Position: b.Position,
		Size:     b.Type.Size(),
		Color:    b.Color,
	}
}
