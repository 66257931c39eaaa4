package physics

import (
	"testing"

	"github.com/annel0/brick-sandbox/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRay(t *testing.T, ox, oy, oz, dx, dy, dz float64) Ray {
	t.Helper()
	r, err := NewRay(vec.Vec3Float{X: ox, Y: oy, Z: oz}, vec.Vec3Float{X: dx, Y: dy, Z: dz})
	require.NoError(t, err)
	return r
}

func TestNewRay_ZeroDirection(t *testing.T) {
	_, err := NewRay(vec.Vec3Float{}, vec.Vec3Float{})
	assert.ErrorIs(t, err, ErrZeroDirection)
}

func TestRay_IntersectAABB_TopFace(t *testing.T) {
	box := BoxAt(vec.Vec3Float{X: 0, Y: 0.6, Z: 0}, vec.Vec3Float{X: 1, Y: 1.2, Z: 1})
	r := mustRay(t, 0, 5, 0, 0, -1, 0)

	dist, normal, ok := r.IntersectAABB(box)
	require.True(t, ok, "Луч сверху должен попасть в коробку")
	assert.InDelta(t, 3.8, dist, 1e-9)
	assert.Equal(t, vec.Vec3Float{X: 0, Y: 1, Z: 0}, normal, "Нормаль верхней грани направлена вверх")
}

func TestRay_IntersectAABB_SideAndBottom(t *testing.T) {
	box := BoxAt(vec.Vec3Float{X: 0, Y: 2, Z: 0}, vec.Vec3Float{X: 2, Y: 1, Z: 2})

	side := mustRay(t, -5, 2, 0, 1, 0, 0)
	dist, normal, ok := side.IntersectAABB(box)
	require.True(t, ok)
	assert.InDelta(t, 4.0, dist, 1e-9)
	assert.Equal(t, vec.Vec3Float{X: -1, Y: 0, Z: 0}, normal)

	bottom := mustRay(t, 0.2, 0.5, 0.3, 0, 1, 0)
	dist, normal, ok = bottom.IntersectAABB(box)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dist, 1e-9)
	assert.Equal(t, vec.Vec3Float{X: 0, Y: -1, Z: 0}, normal)
}

func TestRay_IntersectAABB_Miss(t *testing.T) {
	box := BoxAt(vec.Vec3Float{}, vec.Vec3Float{X: 1, Y: 1, Z: 1})

	_, _, ok := mustRay(t, 5, 5, 5, 0, 1, 0).IntersectAABB(box)
	assert.False(t, ok, "Луч в сторону не должен попасть")

	_, _, ok = mustRay(t, 0, 5, 0, 0, 1, 0).IntersectAABB(box)
	assert.False(t, ok, "Коробка позади луча не должна учитываться")

	_, _, ok = mustRay(t, 0, 0, 0, 1, 0, 0).IntersectAABB(box)
	assert.False(t, ok, "Луч изнутри коробки не видит её граней")
}

func TestRay_IntersectGround(t *testing.T) {
	r := mustRay(t, 2, 2, 2, 0, -1, 0)
	dist, ok := r.IntersectGround()
	require.True(t, ok)
	assert.InDelta(t, 2.0, dist, 1e-9)
	assert.True(t, r.At(dist).ApproxEqual(vec.Vec3Float{X: 2, Y: 0, Z: 2}, 1e-9))

	_, ok = mustRay(t, 0, 2, 0, 1, 0, 0).IntersectGround()
	assert.False(t, ok, "Горизонтальный луч не пересекает пол")

	_, ok = mustRay(t, 0, -1, 0, 0, 1, 0).IntersectGround()
	assert.False(t, ok, "Пол не виден снизу")
}

func TestAABB_Intersects(t *testing.T) {
	a := BoxAt(vec.Vec3Float{X: 0, Y: 0.6, Z: 0}, vec.Vec3Float{X: 1, Y: 1.2, Z: 1})
	stacked := BoxAt(vec.Vec3Float{X: 0, Y: 1.8, Z: 0}, vec.Vec3Float{X: 1, Y: 1.2, Z: 1})
	overlapping := BoxAt(vec.Vec3Float{X: 0.5, Y: 0.6, Z: 0}, vec.Vec3Float{X: 1, Y: 1.2, Z: 1})

	assert.False(t, a.Intersects(stacked), "Поставленные друг на друга кирпичи только касаются")
	assert.True(t, a.Intersects(overlapping))

	u := a.Union(stacked)
	assert.InDelta(t, 2.4, u.Size().Y, 1e-9)
	assert.InDelta(t, 1.2, u.Center().Y, 1e-9)
}
