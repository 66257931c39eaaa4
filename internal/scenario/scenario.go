// Package scenario исполняет заскриптованные сессии конструктора из YAML.
//
// Пример:
//
//	name: stack
//	steps:
//	  - select: {type: b22, color: Red}
//	  - ray: {origin: {x: 0, y: 10, z: 0}, direction: {x: 0, y: -1, z: 0}}
//	  - commit
//	  - expect: {bricks: 1, can_undo: true}
package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/annel0/brick-sandbox/internal/vec"
	"gopkg.in/yaml.v3"
)

// ErrInvalidStep шаг без действия или с несколькими действиями
var ErrInvalidStep = errors.New("invalid scenario step")

// Scenario последовательность шагов
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step один шаг; заполнено ровно одно действие.
// Команды без параметров можно писать скаляром: "- commit".
type Step struct {
	Mode   string  `yaml:"mode,omitempty"`
	Select *Select `yaml:"select,omitempty"`
	Ray    *Ray    `yaml:"ray,omitempty"`
	Hit    *Hit    `yaml:"hit,omitempty"`
	Commit bool    `yaml:"commit,omitempty"`
	Undo   bool    `yaml:"undo,omitempty"`
	Redo   bool    `yaml:"redo,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Select выбор типа и/или цвета (hex или имя палитры)
type Select struct {
	Type  string `yaml:"type"`
	Color string `yaml:"color"`
}

// Ray луч камеры
type Ray struct {
	Origin    vec.Vec3Float `yaml:"origin"`
	Direction vec.Vec3Float `yaml:"direction"`
}

// Hit готовое попадание. Brick - порядковый номер кирпича в сцене (с 1),
// 0 вместе с ground: true означает пол.
type Hit struct {
	Ground bool          `yaml:"ground"`
	Brick  int           `yaml:"brick"`
	Point  vec.Vec3Float `yaml:"point"`
	Normal vec.Vec3Float `yaml:"normal"`
}

// Expect проверки состояния; незаданные поля не проверяются
type Expect struct {
	Bricks  *int           `yaml:"bricks"`
	CanUndo *bool          `yaml:"can_undo"`
	CanRedo *bool          `yaml:"can_redo"`
	Mode    string         `yaml:"mode"`
	Preview *PreviewExpect `yaml:"preview"`
}

// PreviewExpect проверки текущего превью
type PreviewExpect struct {
	Valid    *bool          `yaml:"valid"`
	Kind     string         `yaml:"kind"`
	Face     string         `yaml:"face"`
	Position *vec.Vec3Float `yaml:"position"`
}

// UnmarshalYAML разрешает скалярную запись команд commit/undo/redo
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		switch node.Value {
		case "commit":
			s.Commit = true
		case "undo":
			s.Undo = true
		case "redo":
			s.Redo = true
		default:
			return fmt.Errorf("%w: line %d: unknown command %q", ErrInvalidStep, node.Line, node.Value)
		}
		return nil
	}

	type plain Step
	return node.Decode((*plain)(s))
}

// Action возвращает имя действия шага
func (s Step) Action() string {
	switch {
	case s.Mode != "":
		return "mode"
	case s.Select != nil:
		return "select"
	case s.Ray != nil:
		return "ray"
	case s.Hit != nil:
		return "hit"
	case s.Commit:
		return "commit"
	case s.Undo:
		return "undo"
	case s.Redo:
		return "redo"
	case s.Expect != nil:
		return "expect"
	default:
		return ""
	}
}

func (s Step) actionCount() int {
	n := 0
	for _, set := range []bool{s.Mode != "", s.Select != nil, s.Ray != nil, s.Hit != nil, s.Commit, s.Undo, s.Redo, s.Expect != nil} {
		if set {
			n++
		}
	}
	return n
}

// Validate проверяет, что каждый шаг содержит ровно одно действие
func (sc *Scenario) Validate() error {
	var errs []error
	for i, step := range sc.Steps {
		if n := step.actionCount(); n != 1 {
			errs = append(errs, fmt.Errorf("%w: step %d has %d actions", ErrInvalidStep, i+1, n))
		}
	}
	return errors.Join(errs...)
}

// Parse разбирает YAML сценария
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load читает сценарий из файла
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}
