package physics

import (
	"errors"
	"math"

	"github.com/annel0/brick-sandbox/internal/vec"
)

// ErrZeroDirection возвращается при попытке построить луч без направления
var ErrZeroDirection = errors.New("ray direction must be non-zero")

// parallelEps порог, ниже которого луч считается параллельным плоскости
const parallelEps = 1e-9

// Ray представляет луч с началом и нормализованным направлением
type Ray struct {
	Origin    vec.Vec3Float `json:"origin"`
	Direction vec.Vec3Float `json:"direction"`
}

// NewRay создаёт луч, нормализуя направление
func NewRay(origin, direction vec.Vec3Float) (Ray, error) {
	if direction.Length() < parallelEps {
		return Ray{}, ErrZeroDirection
	}
	return Ray{Origin: origin, Direction: direction.Normalized()}, nil
}

// At возвращает точку луча на расстоянии t от начала
func (r Ray) At(t float64) vec.Vec3Float {
	return r.Origin.Add(r.Direction.Mul(t))
}

// AABB представляет выровненный по осям параллелепипед
type AABB struct {
	Min vec.Vec3Float `json:"min"`
	Max vec.Vec3Float `json:"max"`
}

// BoxAt строит AABB по центру и полному размеру
func BoxAt(center, size vec.Vec3Float) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Center возвращает центр коробки
func (a AABB) Center() vec.Vec3Float {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Size возвращает размеры коробки
func (a AABB) Size() vec.Vec3Float {
	return a.Max.Sub(a.Min)
}

// Union возвращает наименьшую коробку, содержащую обе
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: vec.Vec3Float{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: vec.Vec3Float{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

// Contains проверяет, лежит ли точка внутри коробки или на её границе
func (a AABB) Contains(p vec.Vec3Float) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y &&
		p.Z >= a.Min.Z && p.Z <= a.Max.Z
}

// Intersects проверяет строгое перекрытие объёмов (касание гранями не считается)
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X < b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y < b.Max.Y && a.Max.Y > b.Min.Y &&
		a.Min.Z < b.Max.Z && a.Max.Z > b.Min.Z
}

// IntersectAABB пересекает луч с коробкой методом плит.
// Возвращает расстояние до грани входа и внешнюю нормаль этой грани.
// Луч, начинающийся внутри коробки, её не задевает: видны только лицевые грани.
func (r Ray) IntersectAABB(box AABB) (float64, vec.Vec3Float, bool) {
	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	entryAxis := -1

	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < parallelEps {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, vec.Vec3Float{}, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			entryAxis = axis
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, vec.Vec3Float{}, false
		}
	}

	if entryAxis < 0 || tmin < 0 {
		return 0, vec.Vec3Float{}, false
	}

	var normal [3]float64
	normal[entryAxis] = -math.Copysign(1, dir[entryAxis])
	return tmin, vec.Vec3Float{X: normal[0], Y: normal[1], Z: normal[2]}, true
}

// GroundNormal нормаль бесконечного пола
var GroundNormal = vec.Vec3Float{X: 0, Y: 1, Z: 0}

// IntersectGround пересекает луч с плоскостью пола y=0.
// Пол односторонний: попадание только сверху при движении луча вниз.
func (r Ray) IntersectGround() (float64, bool) {
	if r.Direction.Y > -parallelEps || r.Origin.Y < 0 {
		return 0, false
	}
	t := -r.Origin.Y / r.Direction.Y
	if t < 0 {
		return 0, false
	}
	return t, true
}
