package world

import (
	"errors"
	"testing"

	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapAxis(t *testing.T) {
	cases := []struct {
		v     float64
		cells int
		want  float64
	}{
		{2.3, 1, 2},
		{2.3, 2, 2.5},
		{2.3, 4, 2.5},
		{2.3, 3, 2},
		{-0.3, 1, 0},
		{-0.3, 2, -0.5},
		{0.5, 1, 1}, // половина округляется вверх
		{1.0, 2, 1.5},
		{0.99, 2, 0.5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SnapAxis(c.v, c.cells), "SnapAxis(%v, %d)", c.v, c.cells)
	}
}

func TestPlacement_GroundParity(t *testing.T) {
	pr := NewPlacementResolver(NewSpatialIndex(), 0)
	hit := SurfaceHit{Ground: true, Point: v3(2.3, 0, 2.3), Normal: physics.GroundNormal}

	p, err := pr.Resolve(hit, brickType(t, "b11"))
	require.NoError(t, err)
	assertVec(t, v3(2, 0.6, 2), p.Position, "1x1: целые координаты")
	assert.Equal(t, FaceGround, p.Face)
	assert.Nil(t, p.Target)

	p, err = pr.Resolve(hit, brickType(t, "b22"))
	require.NoError(t, err)
	assertVec(t, v3(2.5, 0.6, 2.5), p.Position, "2x2: половинные координаты")

	p, err = pr.Resolve(hit, brickType(t, "b21"))
	require.NoError(t, err)
	assertVec(t, v3(2.5, 0.6, 2), p.Position, "2x1: половинная X, целая Z")

	p, err = pr.Resolve(hit, brickType(t, "p11"))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p.Position.Y, posTolerance, "Пластина стоит на полу")
	assertVec(t, v3(1.5, 0, 1.5), p.Box.Min)
	assertVec(t, v3(2.5, 0.4, 2.5), p.Box.Max)
}

func TestPlacement_StackOnTop(t *testing.T) {
	idx := NewSpatialIndex()
	base := placeBrick(t, idx, "base", "b11", v3(0, 0.6, 0))
	pr := NewPlacementResolver(idx, DefaultEpsilon)

	hit, ok := CastRay(idx, downRay(t, 0.1, 0.1))
	require.True(t, ok)
	require.False(t, hit.Ground)

	p, err := pr.Resolve(hit, brickType(t, "b11"))
	require.NoError(t, err)
	assertVec(t, v3(0, 1.8, 0), p.Position)
	assert.Equal(t, FaceTop, p.Face)
	assert.Same(t, base, p.Target)

	p, err = pr.Resolve(hit, brickType(t, "p11"))
	require.NoError(t, err)
	assert.InDelta(t, 1.4, p.Position.Y, posTolerance, "Пластина на кирпиче: 0.6+0.6+0.2")
}

func TestPlacement_Underneath(t *testing.T) {
	idx := NewSpatialIndex()
	low := placeBrick(t, idx, "low", "b11", v3(0, 0.6, 0))
	high := placeBrick(t, idx, "high", "b11", v3(3, 3.0, 0))
	pr := NewPlacementResolver(idx, DefaultEpsilon)
	down := v3(0, -1, 0)

	p, err := pr.Resolve(SurfaceHit{Brick: low, PartID: low.BodyPartID(), Point: v3(0, 0, 0), Normal: down}, brickType(t, "b11"))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p.Position.Y, posTolerance, "Под кирпичом на полу высота не опускается ниже h/2")
	assert.Equal(t, FaceBottom, p.Face)

	p, err = pr.Resolve(SurfaceHit{Brick: high, PartID: high.BodyPartID(), Point: v3(3, 2.4, 0), Normal: down}, brickType(t, "b11"))
	require.NoError(t, err)
	assert.InDelta(t, 1.8, p.Position.Y, posTolerance, "Под висящим кирпичом: 3.0-0.6-0.6")
}

func TestPlacement_Side(t *testing.T) {
	idx := NewSpatialIndex()
	base := placeBrick(t, idx, "base", "b11", v3(0, 0.6, 0))
	pr := NewPlacementResolver(idx, DefaultEpsilon)

	ray := mustRay(t, v3(5, 0.6, 0.2), v3(-1, 0, 0))
	hit, ok := CastRay(idx, ray)
	require.True(t, ok)
	assertVec(t, v3(1, 0, 0), hit.Normal)

	p, err := pr.Resolve(hit, brickType(t, "b11"))
	require.NoError(t, err)
	assertVec(t, v3(1, 0.6, 0), p.Position, "Сбоку: соседняя клетка на той же высоте")
	assert.Equal(t, FaceSide, p.Face)
	assert.Same(t, base, p.Target)
}

func TestPlacement_ResolvesOwnerByPart(t *testing.T) {
	idx := NewSpatialIndex()
	base := placeBrick(t, idx, "base", "b22", v3(0.5, 0.6, 0.5))
	pr := NewPlacementResolver(idx, DefaultEpsilon)

	hit := SurfaceHit{PartID: base.StudPartID(1, 1), Point: v3(1, 1.35, 1), Normal: v3(0, 1, 0)}
	p, err := pr.Resolve(hit, brickType(t, "b11"))
	require.NoError(t, err)
	assert.Same(t, base, p.Target, "Шип разрешается в свой кирпич")
	assertVec(t, v3(1, 1.8, 1), p.Position)
}

func TestPlacement_OrphanPart(t *testing.T) {
	pr := NewPlacementResolver(NewSpatialIndex(), DefaultEpsilon)
	_, err := pr.Resolve(SurfaceHit{PartID: "ghost/body", Normal: v3(0, 1, 0)}, brickType(t, "b11"))
	assert.True(t, errors.Is(err, ErrOrphanPart))
}

func TestCastRay_NearestOfGroundAndBricks(t *testing.T) {
	idx := NewSpatialIndex()

	hit, ok := CastRay(idx, downRay(t, 1, 1))
	require.True(t, ok)
	assert.True(t, hit.Ground)
	assert.InDelta(t, 10.0, hit.Distance, posTolerance)

	placeBrick(t, idx, "a", "b11", v3(1, 0.6, 1))
	hit, ok = CastRay(idx, downRay(t, 1, 1))
	require.True(t, ok)
	assert.False(t, hit.Ground, "Кирпич ближе пола")

	_, ok = CastRay(idx, mustRay(t, v3(0, 5, 0), v3(0, 1, 0)))
	assert.False(t, ok, "Луч в небо ничего не задевает")

	_, ok = CastRay(idx, mustRay(t, v3(0, -1, 0), v3(0, 1, 0)))
	assert.False(t, ok, "Пол виден только сверху")
}

func TestRemoval_NearestBrick(t *testing.T) {
	idx := NewSpatialIndex()
	placeBrick(t, idx, "far", "b11", v3(0.5, 0.6, 0))
	near := placeBrick(t, idx, "near", "b11", v3(-1.5, 0.6, 0))
	rr := NewRemovalResolver(idx)

	got, ok := rr.Resolve(mustRay(t, v3(-5, 0.6, 0), v3(1, 0, 0)))
	require.True(t, ok)
	assert.Same(t, near, got)

	_, ok = rr.Resolve(downRay(t, 7, 7))
	assert.False(t, ok, "Пол не является целью удаления")
}

func TestRemoval_ResolveHit(t *testing.T) {
	idx := NewSpatialIndex()
	b := placeBrick(t, idx, "a", "b11", v3(0, 0.6, 0))
	rr := NewRemovalResolver(idx)

	_, ok, err := rr.ResolveHit(SurfaceHit{Ground: true})
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := rr.ResolveHit(SurfaceHit{PartID: b.StudPartID(0, 0)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, b, got)

	_, _, err = rr.ResolveHit(SurfaceHit{PartID: "ghost/body"})
	assert.True(t, errors.Is(err, ErrOrphanPart))
}
