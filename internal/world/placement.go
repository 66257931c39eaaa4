package world

import (
	"math"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
)

// DefaultEpsilon сдвиг точки попадания вдоль нормали
const DefaultEpsilon = 0.01

// normalThreshold порог вертикальной составляющей нормали для верх/низ
const normalThreshold = 0.5

// Face грань, относительно которой строится предложение
type Face uint8

const (
	FaceGround Face = iota // Пол
	FaceTop                // Верх кирпича
	FaceBottom             // Низ кирпича
	FaceSide               // Боковая грань
)

// String возвращает имя грани
func (f Face) String() string {
	switch f {
	case FaceGround:
		return "ground"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceSide:
		return "side"
	default:
		return "unknown"
	}
}

// SurfaceHit ближайшее пересечение луча с полом или частью кирпича.
// Brick может быть не заполнен: тогда владелец ищется по PartID.
type SurfaceHit struct {
	Ground   bool
	PartID   PartID
	Brick    *PlacedBrick
	Point    vec.Vec3Float
	Normal   vec.Vec3Float
	Distance float64
}

// Proposal предложение размещения, рекомендательное до фиксации
type Proposal struct {
	Type     *catalog.BrickType
	Position vec.Vec3Float
	Size     vec.Vec3Float
	Box      physics.AABB
	Target   *PlacedBrick // кирпич-опора, nil для пола
	Face     Face
}

// CastRay возвращает ближайшее пересечение луча с полом или кирпичами
func CastRay(index *SpatialIndex, ray physics.Ray) (SurfaceHit, bool) {
	var (
		best  SurfaceHit
		found bool
	)

	if hits := index.IntersectCandidates(ray); len(hits) > 0 {
		h := hits[0]
		best = SurfaceHit{PartID: h.PartID, Brick: h.Brick, Point: h.Point, Normal: h.Normal, Distance: h.Distance}
		found = true
	}

	if dist, ok := ray.IntersectGround(); ok && (!found || dist < best.Distance) {
		best = SurfaceHit{Ground: true, Point: ray.At(dist), Normal: physics.GroundNormal, Distance: dist}
		found = true
	}

	return best, found
}

// SnapAxis привязывает координату к сетке по числу клеток вдоль оси:
// нечётное число клеток - целая координата, чётное - половинная.
// Половина округляется вверх.
func SnapAxis(v float64, cells int) float64 {
	offset := 0.0
	if cells%2 == 0 {
		offset = 0.5
	}
	return math.Floor(v-offset+0.5) + offset
}

// PlacementResolver вычисляет позицию нового кирпича. Не хранит состояния между вызовами.
type PlacementResolver struct {
	index   *SpatialIndex
	epsilon float64
}

// NewPlacementResolver создаёт резолвер; epsilon <= 0 заменяется DefaultEpsilon
func NewPlacementResolver(index *SpatialIndex, epsilon float64) *PlacementResolver {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &PlacementResolver{index: index, epsilon: epsilon}
}

// Resolve строит предложение для типа bt по попаданию hit.
// Ошибка означает нарушение контракта сцены (часть без владельца).
func (pr *PlacementResolver) Resolve(hit SurfaceHit, bt *catalog.BrickType) (Proposal, error) {
	h := bt.Height()
	pos := hit.Point.Add(hit.Normal.Mul(pr.epsilon))

	gx := SnapAxis(pos.X, bt.Width)
	gz := SnapAxis(pos.Z, bt.Length)

	var (
		gy     float64
		face   Face
		target *PlacedBrick
	)

	if hit.Ground {
		gy = h / 2
		face = FaceGround
	} else {
		owner := hit.Brick
		if owner == nil {
			var err error
			owner, err = pr.index.Owner(hit.PartID)
			if err != nil {
				return Proposal{}, err
			}
		}
		target = owner
		baseH := owner.Height()
		baseY := owner.Position.Y

		switch {
		case hit.Normal.Y > normalThreshold:
			gy = baseY + baseH/2 + h/2
			face = FaceTop
		case hit.Normal.Y < -normalThreshold:
			gy = math.Max(h/2, baseY-baseH/2-h/2)
			face = FaceBottom
		default:
			gy = baseY
			face = FaceSide
		}
	}

	center := vec.Vec3Float{X: gx, Y: gy, Z: gz}
	size := bt.Size()
	return Proposal{
		Type:     bt,
		Position: center,
		Size:     size,
		Box:      physics.BoxAt(center, size),
		Target:   target,
		Face:     face,
	}, nil
}
