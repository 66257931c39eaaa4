package api

import (
	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/vec"
	"github.com/annel0/brick-sandbox/internal/world"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ModeRequest переключение режима
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SelectRequest выбор типа и/или цвета; цвет - "#rrggbb" или имя из палитры
type SelectRequest struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

// RayDTO луч камеры
type RayDTO struct {
	Origin    vec.Vec3Float `json:"origin"`
	Direction vec.Vec3Float `json:"direction"`
}

// HitDTO попадание, найденное клиентом
type HitDTO struct {
	Ground bool          `json:"ground"`
	PartID string        `json:"part_id"`
	Point  vec.Vec3Float `json:"point"`
	Normal vec.Vec3Float `json:"normal"`
}

// TickRequest содержит ровно одно из полей ray или hit
type TickRequest struct {
	Ray *RayDTO `json:"ray,omitempty"`
	Hit *HitDTO `json:"hit,omitempty"`
}

// PreviewDTO превью для клиента
type PreviewDTO struct {
	Kind     string        `json:"kind"`
	Valid    bool          `json:"valid"`
	Position vec.Vec3Float `json:"position"`
	Size     vec.Vec3Float `json:"size"`
	Color    catalog.Color `json:"color"`
	Type     string        `json:"type,omitempty"`
	TargetID world.BrickID `json:"target_id,omitempty"`
	Face     string        `json:"face,omitempty"`
}

func newPreviewDTO(p world.Preview) PreviewDTO {
	dto := PreviewDTO{
		Kind:     p.Kind.String(),
		Valid:    p.Valid,
		Position: p.Position,
		Size:     p.Size,
		Color:    p.Color,
		Type:     p.TypeID,
		TargetID: p.TargetID,
	}
	if p.Kind == world.PreviewPlacement {
		dto.Face = p.Face.String()
	}
	return dto
}

// StatusDTO строка состояния
type StatusDTO struct {
	Mode      string        `json:"mode"`
	BrickType string        `json:"brick_type"`
	Color     catalog.Color `json:"color"`
	Bricks    int           `json:"bricks"`
	CanUndo   bool          `json:"can_undo"`
	CanRedo   bool          `json:"can_redo"`
	UndoDepth int           `json:"undo_depth"`
	RedoDepth int           `json:"redo_depth"`
	Revision  uint64        `json:"revision"`
}

func newStatusDTO(s world.Status) StatusDTO {
	return StatusDTO{
		Mode:      s.Mode.String(),
		BrickType: s.BrickType,
		Color:     s.Color,
		Bricks:    s.Bricks,
		CanUndo:   s.CanUndo,
		CanRedo:   s.CanRedo,
		UndoDepth: s.UndoDepth,
		RedoDepth: s.RedoDepth,
		Revision:  s.Revision,
	}
}

// StateDTO статус вместе с текущим превью
type StateDTO struct {
	Status  StatusDTO  `json:"status"`
	Preview PreviewDTO `json:"preview"`
}

// OutcomeDTO результат фиксации, отмены или повтора
type OutcomeDTO struct {
	Committed bool            `json:"committed"`
	Kind      string          `json:"kind,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Brick     *world.Snapshot `json:"brick,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Status    StatusDTO       `json:"status"`
}

func newOutcomeDTO(o world.Outcome, s world.Status) OutcomeDTO {
	dto := OutcomeDTO{Committed: o.Committed, Reason: o.Reason, Status: newStatusDTO(s)}
	if o.Committed {
		brick := o.Brick
		dto.Kind = o.Kind.String()
		dto.EventType = o.EventType
		dto.Brick = &brick
	}
	return dto
}

// CatalogDTO типы и палитра
type CatalogDTO struct {
	Types   []*catalog.BrickType `json:"types"`
	Palette []catalog.NamedColor `json:"palette"`
}
