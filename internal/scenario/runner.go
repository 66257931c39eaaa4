package scenario

import (
	"context"
	"fmt"
	"math"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/logging"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
	"github.com/annel0/brick-sandbox/internal/world"
)

// positionTolerance допуск сравнения координат превью
const positionTolerance = 1e-6

// ExpectationError первая не выполненная проверка
type ExpectationError struct {
	Step  int
	Field string
	Want  interface{}
	Got   interface{}
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d: expect %s: want %v, got %v", e.Step, e.Field, e.Want, e.Got)
}

// Report итог прогона сценария
type Report struct {
	Name      string
	Steps     int
	Mutations int
	Bricks    int
	Revision  uint64
	Completed bool
}

// Runner исполняет сценарии против координатора в том же процессе
type Runner struct {
	coord *world.Coordinator
}

// NewRunner создаёт исполнитель над координатором
func NewRunner(coord *world.Coordinator) *Runner {
	return &Runner{coord: coord}
}

// Run выполняет шаги по порядку и останавливается на первой ошибке.
// Несработавшая проверка возвращается как *ExpectationError.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	report := &Report{Name: sc.Name}
	logging.Debug("▶ Сценарий %q: %d шагов", sc.Name, len(sc.Steps))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n := i + 1
		logging.Trace("Шаг %d: %s", n, step.Action())
		mutated, err := r.apply(ctx, n, step)
		if err != nil {
			r.fill(report)
			return report, err
		}
		if mutated {
			report.Mutations++
		}
		report.Steps = n
	}

	r.fill(report)
	report.Completed = true
	logging.Debug("◀ Сценарий %q: %d кирпичей", sc.Name, report.Bricks)
	return report, nil
}

func (r *Runner) fill(report *Report) {
	status := r.coord.Status()
	report.Bricks = status.Bricks
	report.Revision = status.Revision
}

func (r *Runner) apply(ctx context.Context, n int, step Step) (bool, error) {
	switch {
	case step.Mode != "":
		mode, err := world.ParseMode(step.Mode)
		if err != nil {
			return false, fmt.Errorf("step %d: %w", n, err)
		}
		return false, r.coord.SetMode(mode)

	case step.Select != nil:
		return false, r.selectStep(n, step.Select)

	case step.Ray != nil:
		ray, err := physics.NewRay(step.Ray.Origin, step.Ray.Direction)
		if err != nil {
			return false, fmt.Errorf("step %d: %w", n, err)
		}
		if _, err := r.coord.Tick(ray); err != nil {
			return false, fmt.Errorf("step %d: %w", n, err)
		}
		return false, nil

	case step.Hit != nil:
		hit, err := r.surfaceHit(n, step.Hit)
		if err != nil {
			return false, err
		}
		if _, err := r.coord.TickHit(hit); err != nil {
			return false, fmt.Errorf("step %d: %w", n, err)
		}
		return false, nil

	case step.Commit:
		return r.outcome(ctx, n, r.coord.Commit)
	case step.Undo:
		return r.outcome(ctx, n, r.coord.Undo)
	case step.Redo:
		return r.outcome(ctx, n, r.coord.Redo)

	case step.Expect != nil:
		return false, r.check(n, step.Expect)

	default:
		return false, fmt.Errorf("%w: step %d has no action", ErrInvalidStep, n)
	}
}

func (r *Runner) outcome(ctx context.Context, n int, run func(context.Context) (world.Outcome, error)) (bool, error) {
	o, err := run(ctx)
	if err != nil {
		return false, fmt.Errorf("step %d: %w", n, err)
	}
	return o.Committed, nil
}

func (r *Runner) selectStep(n int, sel *Select) error {
	if sel.Type != "" {
		if err := r.coord.SelectType(sel.Type); err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
	}
	if sel.Color != "" {
		color, err := catalog.ParseColor(sel.Color)
		if err != nil {
			named, ok := r.coord.Catalog().ColorByName(sel.Color)
			if !ok {
				return fmt.Errorf("step %d: %w", n, err)
			}
			color = named
		}
		r.coord.SelectColor(color)
	}
	return nil
}

// surfaceHit переводит порядковый номер кирпича в идентификатор его корпуса
func (r *Runner) surfaceHit(n int, h *Hit) (world.SurfaceHit, error) {
	hit := world.SurfaceHit{Ground: h.Ground, Point: h.Point, Normal: h.Normal}
	if h.Ground {
		return hit, nil
	}

	bricks := r.coord.Bricks()
	if h.Brick < 1 || h.Brick > len(bricks) {
		return hit, fmt.Errorf("%w: step %d: brick %d out of range 1..%d", ErrInvalidStep, n, h.Brick, len(bricks))
	}
	hit.PartID = world.BodyPartOf(bricks[h.Brick-1].ID)
	return hit, nil
}

func (r *Runner) check(n int, e *Expect) error {
	status := r.coord.Status()
	fail := func(field string, want, got interface{}) error {
		return &ExpectationError{Step: n, Field: field, Want: want, Got: got}
	}

	if e.Bricks != nil && *e.Bricks != status.Bricks {
		return fail("bricks", *e.Bricks, status.Bricks)
	}
	if e.CanUndo != nil && *e.CanUndo != status.CanUndo {
		return fail("can_undo", *e.CanUndo, status.CanUndo)
	}
	if e.CanRedo != nil && *e.CanRedo != status.CanRedo {
		return fail("can_redo", *e.CanRedo, status.CanRedo)
	}
	if e.Mode != "" {
		mode, err := world.ParseMode(e.Mode)
		if err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
		if mode != status.Mode {
			return fail("mode", mode, status.Mode)
		}
	}
	if e.Preview == nil {
		return nil
	}

	p := r.coord.Preview()
	pe := e.Preview
	if pe.Valid != nil && *pe.Valid != p.Valid {
		return fail("preview.valid", *pe.Valid, p.Valid)
	}
	if pe.Kind != "" && pe.Kind != p.Kind.String() {
		return fail("preview.kind", pe.Kind, p.Kind)
	}
	if pe.Face != "" {
		if p.Kind != world.PreviewPlacement || pe.Face != p.Face.String() {
			return fail("preview.face", pe.Face, faceOf(p))
		}
	}
	if pe.Position != nil && !near(*pe.Position, p.Position) {
		return fail("preview.position", *pe.Position, p.Position)
	}
	return nil
}

func faceOf(p world.Preview) string {
	if p.Kind != world.PreviewPlacement {
		return "none"
	}
	return p.Face.String()
}

func near(a, b vec.Vec3Float) bool {
	return math.Abs(a.X-b.X) <= positionTolerance &&
		math.Abs(a.Y-b.Y) <= positionTolerance &&
		math.Abs(a.Z-b.Z) <= positionTolerance
}
