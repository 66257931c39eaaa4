package world

import "fmt"

// ActionKind вид записанной мутации
type ActionKind uint8

const (
	ActionAdd ActionKind = iota
	ActionRemove
)

// String возвращает имя вида действия
func (k ActionKind) String() string {
	switch k {
	case ActionAdd:
		return "ADD"
	case ActionRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// Action обратимая мутация. Brick - ссылка без владения:
// при отмене удаления вставляется именно она.
type Action struct {
	Kind  ActionKind
	Brick *PlacedBrick
}

// Mutator то, к чему история применяет мутации
type Mutator interface {
	Add(b *PlacedBrick) error
	Remove(id BrickID) (*PlacedBrick, bool)
}

// History линейная история с двумя стеками (последний элемент - самый свежий)
type History struct {
	undo  []Action
	redo  []Action
	limit int
}

// NewHistory создаёт историю; limit <= 0 - без ограничения глубины
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Record добавляет действие и безусловно очищает стек повтора
func (h *History) Record(a Action) {
	h.undo = append(h.undo, a)
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		h.undo = append(h.undo[:0:0], h.undo[drop:]...)
	}
	h.redo = h.redo[:0]
}

// Undo отменяет последнее действие. Пустой стек - не ошибка, возвращается false.
// При неудачной мутации стеки не меняются.
func (h *History) Undo(m Mutator) (Action, bool, error) {
	if len(h.undo) == 0 {
		return Action{}, false, nil
	}
	a := h.undo[len(h.undo)-1]
	if err := apply(m, a, true); err != nil {
		return a, false, fmt.Errorf("undo %s %s: %w", a.Kind, a.Brick.ID, err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, a)
	return a, true, nil
}

// Redo повторяет последнее отменённое действие с той же ссылкой на кирпич
func (h *History) Redo(m Mutator) (Action, bool, error) {
	if len(h.redo) == 0 {
		return Action{}, false, nil
	}
	a := h.redo[len(h.redo)-1]
	if err := apply(m, a, false); err != nil {
		return a, false, fmt.Errorf("redo %s %s: %w", a.Kind, a.Brick.ID, err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, a)
	return a, true, nil
}

// apply выполняет действие либо обратное к нему
func apply(m Mutator, a Action, inverse bool) error {
	add := a.Kind == ActionAdd
	if inverse {
		add = !add
	}
	if add {
		return m.Add(a.Brick)
	}
	if _, ok := m.Remove(a.Brick.ID); !ok {
		return fmt.Errorf("brick %s is not indexed", a.Brick.ID)
	}
	return nil
}

// CanUndo есть ли что отменять
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo есть ли что повторять
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth глубина стека отмены
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth глубина стека повтора
func (h *History) RedoDepth() int { return len(h.redo) }
