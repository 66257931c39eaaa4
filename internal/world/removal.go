package world

import "github.com/annel0/brick-sandbox/internal/physics"

// RemovalResolver выбирает кирпич для удаления: ближайший задетый лучом.
// Пол не участвует.
type RemovalResolver struct {
	index *SpatialIndex
}

// NewRemovalResolver создаёт резолвер удаления
func NewRemovalResolver(index *SpatialIndex) *RemovalResolver {
	return &RemovalResolver{index: index}
}

// Resolve возвращает кирпич под лучом или false
func (rr *RemovalResolver) Resolve(ray physics.Ray) (*PlacedBrick, bool) {
	hits := rr.index.IntersectCandidates(ray)
	if len(hits) == 0 {
		return nil, false
	}
	return hits[0].Brick, true
}

// ResolveHit разрешает внешнее попадание в часть кирпича.
// Попадание в пол целью не является.
func (rr *RemovalResolver) ResolveHit(hit SurfaceHit) (*PlacedBrick, bool, error) {
	if hit.Ground {
		return nil, false, nil
	}
	if hit.Brick != nil {
		return hit.Brick, true, nil
	}
	owner, err := rr.index.Owner(hit.PartID)
	if err != nil {
		return nil, false, err
	}
	return owner, true, nil
}
