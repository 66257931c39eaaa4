package world

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/logging"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
)

// ErrUnknownMode возвращается при разборе неизвестного режима
var ErrUnknownMode = errors.New("unknown interaction mode")

// Mode режим взаимодействия
type Mode uint8

const (
	ModeBuild Mode = iota
	ModeErase
)

// String возвращает имя режима
func (m Mode) String() string {
	switch m {
	case ModeBuild:
		return "BUILD"
	case ModeErase:
		return "ERASE"
	default:
		return "UNKNOWN"
	}
}

// ParseMode разбирает имя режима без учёта регистра
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUILD":
		return ModeBuild, nil
	case "ERASE":
		return ModeErase, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Причины отказа в фиксации
const (
	RejectNoProposal = "no_proposal"
	RejectNoTarget   = "no_target"
	RejectOccupied   = "occupied"
)

// PreviewKind вид превью
type PreviewKind uint8

const (
	PreviewNone PreviewKind = iota
	PreviewPlacement
	PreviewRemoval
)

// String возвращает имя вида превью
func (k PreviewKind) String() string {
	switch k {
	case PreviewPlacement:
		return "placement"
	case PreviewRemoval:
		return "removal"
	default:
		return "none"
	}
}

// Preview то, что рисует слой отображения: призрак кирпича или подсветку цели
type Preview struct {
	Kind     PreviewKind
	Valid    bool
	Position vec.Vec3Float
	Size     vec.Vec3Float
	Box      physics.AABB
	Color    catalog.Color
	TypeID   string
	TargetID BrickID
	Face     Face
}

// Outcome результат фиксации, отмены или повтора
type Outcome struct {
	Committed bool
	Kind      ActionKind
	EventType string
	Brick     Snapshot
	Reason    string
}

// Status сводка для строки состояния
type Status struct {
	Mode      Mode
	BrickType string
	Color     catalog.Color
	Bricks    int
	CanUndo   bool
	CanRedo   bool
	UndoDepth int
	RedoDepth int
	Revision  uint64
}

// Options параметры координатора
type Options struct {
	Epsilon        float64
	MaxHistory     int
	RejectOccupied bool
	DefaultType    string
	DefaultColor   catalog.Color
	Sink           MutationSink
	Metrics        Recorder
	NewID          func() BrickID
}

// source то, из чего строилось последнее превью
type source struct {
	ray *physics.Ray
	hit *SurfaceHit
}

// Coordinator связывает резолверы, индекс и историю.
// Явный объект контекста: владеет индексом и историей, все вызовы сериализованы.
type Coordinator struct {
	mu sync.Mutex

	catalog *catalog.Catalog
	index   *SpatialIndex
	placer  *PlacementResolver
	remover *RemovalResolver
	history *History

	mode      Mode
	brickType *catalog.BrickType
	color     catalog.Color

	src        *source
	proposal   *Proposal
	target     *PlacedBrick
	preview    Preview
	resolvedAt uint64

	rejectOccupied bool
	sink           MutationSink
	metrics        Recorder
	newID          func() BrickID
}

// NewCoordinator создаёт координатор над пустой сценой
func NewCoordinator(cat *catalog.Catalog, opts Options) (*Coordinator, error) {
	if cat == nil {
		cat = catalog.Default()
	}

	bt := cat.First()
	if opts.DefaultType != "" {
		var err error
		if bt, err = cat.Lookup(opts.DefaultType); err != nil {
			return nil, err
		}
	}

	color := opts.DefaultColor
	if color == 0 {
		var ok bool
		if color, ok = cat.ColorByName("Blue"); !ok {
			if palette := cat.Palette(); len(palette) > 0 {
				color = palette[0].Color
			}
		}
	}

	index := NewSpatialIndex()
	c := &Coordinator{
		catalog:        cat,
		index:          index,
		placer:         NewPlacementResolver(index, opts.Epsilon),
		remover:        NewRemovalResolver(index),
		history:        NewHistory(opts.MaxHistory),
		mode:           ModeBuild,
		brickType:      bt,
		color:          color,
		rejectOccupied: opts.RejectOccupied,
		sink:           opts.Sink,
		metrics:        opts.Metrics,
		newID:          opts.NewID,
	}
	if c.metrics == nil {
		c.metrics = nopRecorder{}
	}
	if c.newID == nil {
		c.newID = NewBrickID
	}
	return c, nil
}

// Catalog возвращает каталог типов
func (c *Coordinator) Catalog() *catalog.Catalog {
	return c.catalog
}

// SetMode переключает режим и отменяет текущее превью
func (c *Coordinator) SetMode(m Mode) error {
	if m != ModeBuild && m != ModeErase {
		return fmt.Errorf("%w: %d", ErrUnknownMode, m)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != m {
		logging.Debug("Режим: %s -> %s", c.mode, m)
	}
	c.mode = m
	c.cancelLocked()
	return nil
}

// SelectType выбирает тип кирпича и отменяет текущее превью
func (c *Coordinator) SelectType(id string) error {
	bt, err := c.catalog.Lookup(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.brickType = bt
	c.cancelLocked()
	return nil
}

// SelectColor выбирает цвет и отменяет текущее превью
func (c *Coordinator) SelectColor(color catalog.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.color = color
	c.cancelLocked()
}

// Tick пересчитывает превью по лучу камеры
func (c *Coordinator) Tick(ray physics.Ray) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.src = &source{ray: &ray}
	return c.resolveLocked()
}

// TickHit пересчитывает превью по попаданию, найденному внешним слоем отображения
func (c *Coordinator) TickHit(hit SurfaceHit) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.src = &source{hit: &hit}
	return c.resolveLocked()
}

// Preview возвращает текущее превью
func (c *Coordinator) Preview() Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// cancelLocked сбрасывает превью; следующий тик построит его заново
func (c *Coordinator) cancelLocked() {
	c.src = nil
	c.proposal = nil
	c.target = nil
	c.preview = Preview{}
}

// resolveLocked строит превью из последнего источника
func (c *Coordinator) resolveLocked() (Preview, error) {
	started := time.Now()
	c.proposal = nil
	c.target = nil
	c.preview = Preview{}
	c.resolvedAt = c.index.Revision()

	var err error
	switch c.mode {
	case ModeBuild:
		err = c.resolvePlacementLocked()
	case ModeErase:
		err = c.resolveRemovalLocked()
	}

	c.metrics.Resolved(strings.ToLower(c.mode.String()), time.Since(started), c.preview.Valid)
	if err != nil {
		logging.Error("❌ Нарушение контракта сцены: %v", err)
		return c.preview, err
	}
	return c.preview, nil
}

func (c *Coordinator) resolvePlacementLocked() error {
	var (
		hit SurfaceHit
		ok  bool
	)
	switch {
	case c.src == nil:
		return nil
	case c.src.ray != nil:
		hit, ok = CastRay(c.index, *c.src.ray)
	default:
		hit, ok = *c.src.hit, true
	}
	if !ok {
		return nil
	}

	p, err := c.placer.Resolve(hit, c.brickType)
	if err != nil {
		return err
	}
	c.proposal = &p
	c.preview = Preview{
		Kind:     PreviewPlacement,
		Valid:    true,
		Position: p.Position,
		Size:     p.Size,
		Box:      p.Box,
		Color:    catalog.PreviewColor,
		TypeID:   p.Type.ID,
		Face:     p.Face,
	}
	if p.Target != nil {
		c.preview.TargetID = p.Target.ID
	}
	return nil
}

func (c *Coordinator) resolveRemovalLocked() error {
	var (
		target *PlacedBrick
		ok     bool
		err    error
	)
	switch {
	case c.src == nil:
		return nil
	case c.src.ray != nil:
		target, ok = c.remover.Resolve(*c.src.ray)
	default:
		target, ok, err = c.remover.ResolveHit(*c.src.hit)
	}
	if err != nil || !ok {
		return err
	}

	c.target = target
	bounds := target.Bounds()
	c.preview = Preview{
		Kind:     PreviewRemoval,
		Valid:    true,
		Position: target.Position,
		Size:     bounds.Size(),
		Box:      bounds,
		Color:    catalog.HighlightColor,
		TypeID:   target.Type.ID,
		TargetID: target.ID,
	}
	return nil
}

// refreshLocked перестраивает превью, если индекс изменился после последнего тика.
// Внешнее попадание после мутации устаревает и отбрасывается.
func (c *Coordinator) refreshLocked() error {
	if c.src == nil || c.index.Revision() == c.resolvedAt {
		return nil
	}
	if c.src.ray == nil {
		logging.Debug("Превью по внешнему попаданию устарело, фиксация пропущена")
		c.cancelLocked()
		return nil
	}
	_, err := c.resolveLocked()
	return err
}

// Commit фиксирует текущее предложение (BUILD) или удаляет цель (ERASE).
// Без предложения или цели это тихий no-op.
func (c *Coordinator) Commit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshLocked(); err != nil {
		return Outcome{}, err
	}

	switch c.mode {
	case ModeBuild:
		return c.commitPlacementLocked(ctx)
	case ModeErase:
		return c.commitRemovalLocked(ctx)
	default:
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownMode, c.mode)
	}
}

func (c *Coordinator) commitPlacementLocked(ctx context.Context) (Outcome, error) {
	if c.proposal == nil {
		c.metrics.CommitRejected(RejectNoProposal)
		return Outcome{Reason: RejectNoProposal}, nil
	}
	p := c.proposal

	if c.rejectOccupied {
		if occupant, taken := c.index.OccupantAt(p.Position); taken {
			logging.Debug("Позиция %v уже занята кирпичом %s", p.Position, occupant.ID)
			c.metrics.CommitRejected(RejectOccupied)
			return Outcome{Reason: RejectOccupied}, nil
		}
	}

	brick := &PlacedBrick{
		ID:       c.newID(),
		Type:     p.Type,
		Position: p.Position,
		Color:    c.color,
	}
	if err := c.index.Add(brick); err != nil {
		logging.Error("❌ Не удалось добавить кирпич %s: %v", brick.ID, err)
		return Outcome{}, err
	}

	action := Action{Kind: ActionAdd, Brick: brick}
	c.history.Record(action)
	logging.Debug("🧱 Кирпич %s (%s) установлен в %v", brick.ID, p.Type.ID, brick.Position)
	return c.appliedLocked(ctx, action, false, CauseCommit), nil
}

func (c *Coordinator) commitRemovalLocked(ctx context.Context) (Outcome, error) {
	if c.target == nil {
		c.metrics.CommitRejected(RejectNoTarget)
		return Outcome{Reason: RejectNoTarget}, nil
	}

	removed, ok := c.index.Remove(c.target.ID)
	if !ok {
		c.metrics.CommitRejected(RejectNoTarget)
		return Outcome{Reason: RejectNoTarget}, nil
	}

	action := Action{Kind: ActionRemove, Brick: removed}
	c.history.Record(action)
	logging.Debug("🗑 Кирпич %s удалён", removed.ID)
	return c.appliedLocked(ctx, action, false, CauseCommit), nil
}

// Undo отменяет последнее действие; пустая история - no-op
func (c *Coordinator) Undo(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, ok, err := c.history.Undo(c.index)
	if err != nil {
		logging.Error("❌ Ошибка отмены: %v", err)
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, nil
	}
	return c.appliedLocked(ctx, action, true, CauseUndo), nil
}

// Redo повторяет последнее отменённое действие; пустой стек - no-op
func (c *Coordinator) Redo(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, ok, err := c.history.Redo(c.index)
	if err != nil {
		logging.Error("❌ Ошибка повтора: %v", err)
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, nil
	}
	return c.appliedLocked(ctx, action, false, CauseRedo), nil
}

// appliedLocked публикует событие и метрики применённой мутации
func (c *Coordinator) appliedLocked(ctx context.Context, a Action, inverse bool, cause Cause) Outcome {
	eventType := eventTypeOf(a, inverse)
	snap := a.Brick.Snapshot()
	count := c.index.Len()

	c.metrics.MutationApplied(eventType, string(cause))
	c.metrics.BrickCount(count)

	if c.sink != nil {
		ev := MutationEvent{
			EventType:  eventType,
			Cause:      cause,
			Brick:      snap,
			BrickCount: count,
			Revision:   c.index.Revision(),
			At:         time.Now().UTC(),
		}
		if err := c.sink.BrickMutated(ctx, ev); err != nil {
			logging.Warn("⚠️ Событие %s для %s не опубликовано: %v", eventType, snap.ID, err)
		}
	}

	return Outcome{Committed: true, Kind: a.Kind, EventType: eventType, Brick: snap}
}

// Status возвращает сводку состояния
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Mode:      c.mode,
		BrickType: c.brickType.ID,
		Color:     c.color,
		Bricks:    c.index.Len(),
		CanUndo:   c.history.CanUndo(),
		CanRedo:   c.history.CanRedo(),
		UndoDepth: c.history.UndoDepth(),
		RedoDepth: c.history.RedoDepth(),
		Revision:  c.index.Revision(),
	}
}

// IndexStats возвращает сводку пространственного индекса для логов
func (c *Coordinator) IndexStats() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.GetStats()
}

// Bricks возвращает живой список кирпичей в порядке вставки
func (c *Coordinator) Bricks() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.index.All()
	result := make([]Snapshot, len(all))
	for i, b := range all {
		result[i] = b.Snapshot()
	}
	return result
}
