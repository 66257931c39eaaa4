package world

import (
	"fmt"
	"testing"

	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const posTolerance = 1e-9

func v3(x, y, z float64) vec.Vec3Float {
	return vec.Vec3Float{X: x, Y: y, Z: z}
}

func mustRay(t *testing.T, origin, dir vec.Vec3Float) physics.Ray {
	t.Helper()
	r, err := physics.NewRay(origin, dir)
	require.NoError(t, err)
	return r
}

// downRay луч камеры, смотрящий строго вниз на точку (x, z)
func downRay(t *testing.T, x, z float64) physics.Ray {
	return mustRay(t, v3(x, 10, z), v3(0, -1, 0))
}

func brickType(t *testing.T, id string) *catalog.BrickType {
	t.Helper()
	bt, err := catalog.Default().Lookup(id)
	require.NoError(t, err)
	return bt
}

func placeBrick(t *testing.T, idx *SpatialIndex, id BrickID, typeID string, pos vec.Vec3Float) *PlacedBrick {
	t.Helper()
	b := &PlacedBrick{ID: id, Type: brickType(t, typeID), Position: pos, Color: 0x007aff}
	require.NoError(t, idx.Add(b))
	return b
}

func assertVec(t *testing.T, expected, actual vec.Vec3Float, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, expected.ApproxEqual(actual, posTolerance),
		fmt.Sprintf("ожидалось %+v, получено %+v %v", expected, actual, msgAndArgs))
}

// sequentialIDs выдаёт предсказуемые ID: brick-1, brick-2, ...
func sequentialIDs() func() BrickID {
	n := 0
	return func() BrickID {
		n++
		return BrickID(fmt.Sprintf("brick-%d", n))
	}
}
