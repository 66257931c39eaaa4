package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T) (*Runner, *world.Coordinator) {
	t.Helper()
	coord, err := world.NewCoordinator(catalog.Default(), world.Options{RejectOccupied: true})
	require.NoError(t, err)
	return NewRunner(coord), coord
}

func TestParse_ScalarCommands(t *testing.T) {
	sc, err := Parse([]byte(`
name: short
steps:
  - commit
  - undo
  - redo: true
  - mode: erase
`))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 4)
	assert.True(t, sc.Steps[0].Commit)
	assert.True(t, sc.Steps[1].Undo)
	assert.True(t, sc.Steps[2].Redo)
	assert.Equal(t, "mode", sc.Steps[3].Action())
}

func TestParse_InvalidSteps(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - jump\n"))
	assert.ErrorIs(t, err, ErrInvalidStep, "Неизвестная команда")

	_, err = Parse([]byte("steps:\n  - {commit: true, undo: true}\n"))
	assert.ErrorIs(t, err, ErrInvalidStep, "Два действия в одном шаге")

	_, err = Parse([]byte("steps:\n  - {}\n"))
	assert.ErrorIs(t, err, ErrInvalidStep, "Шаг без действия")
}

func TestRunner_ExampleScenario(t *testing.T) {
	sc, err := Load("../../scenarios/stack.yaml")
	require.NoError(t, err)

	runner, coord := newRunner(t)
	report, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.True(t, report.Completed)
	assert.Equal(t, "stack-and-erase", report.Name)
	assert.Equal(t, len(sc.Steps), report.Steps)
	assert.Equal(t, 5, report.Mutations, "commit, commit, undo, redo, erase")
	assert.Equal(t, 1, report.Bricks)
	assert.Equal(t, catalog.Color(0xff3b30), coord.Status().Color)
}

func TestRunner_StopsAtFirstFailedExpectation(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - ray: {origin: {x: 0, y: 10, z: 0}, direction: {x: 0, y: -1, z: 0}}
  - commit
  - expect: {bricks: 2}
  - expect: {can_undo: false}
`))
	require.NoError(t, err)

	runner, _ := newRunner(t)
	report, err := runner.Run(context.Background(), sc)
	require.Error(t, err)

	var expErr *ExpectationError
	require.True(t, errors.As(err, &expErr))
	assert.Equal(t, 3, expErr.Step)
	assert.Equal(t, "bricks", expErr.Field)
	assert.Equal(t, 2, expErr.Want)
	assert.Equal(t, 1, expErr.Got)

	assert.False(t, report.Completed)
	assert.Equal(t, 2, report.Steps)
	assert.Equal(t, 1, report.Bricks)
}

func TestRunner_PreviewExpectations(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - hit: {ground: true, point: {x: 2.2, y: 0, z: -0.9}, normal: {x: 0, y: 1, z: 0}}
  - expect:
      preview: {valid: true, face: ground, position: {x: 2, y: 0.6, z: -1}}
  - expect:
      preview: {face: top}
`))
	require.NoError(t, err)

	runner, _ := newRunner(t)
	_, err = runner.Run(context.Background(), sc)

	var expErr *ExpectationError
	require.True(t, errors.As(err, &expErr))
	assert.Equal(t, 3, expErr.Step)
	assert.Equal(t, "preview.face", expErr.Field)
	assert.Equal(t, "ground", expErr.Got)
}

func TestRunner_HitBrickOutOfRange(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - hit: {brick: 1, point: {x: 0, y: 1.2, z: 0}, normal: {x: 0, y: 1, z: 0}}
`))
	require.NoError(t, err)

	runner, _ := newRunner(t)
	_, err = runner.Run(context.Background(), sc)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestRunner_StepErrors(t *testing.T) {
	cases := map[string]string{
		"unknown mode":   "steps:\n  - mode: paint\n",
		"unknown type":   "steps:\n  - select: {type: b99}\n",
		"unknown color":  "steps:\n  - select: {color: mauve}\n",
		"zero direction": "steps:\n  - ray: {origin: {x: 0, y: 1, z: 0}}\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			sc, err := Parse([]byte(doc))
			require.NoError(t, err)

			runner, _ := newRunner(t)
			report, err := runner.Run(context.Background(), sc)
			assert.Error(t, err)
			assert.Equal(t, 0, report.Steps)
		})
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := newRunner(t)
	_, err := runner.Run(ctx, &Scenario{Steps: []Step{{Commit: true}}})
	assert.ErrorIs(t, err, context.Canceled)
}
