package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/brick-sandbox/internal/physics"
	"github.com/annel0/brick-sandbox/internal/vec"
)

var (
	// ErrDuplicateBrick возвращается при повторной вставке кирпича с тем же ID
	ErrDuplicateBrick = errors.New("brick already indexed")
	// ErrOrphanPart нарушение контракта сцены: часть не принадлежит ни одному кирпичу
	ErrOrphanPart = errors.New("part has no owning brick")
)

// slotStep шаг квантования позиции для проверки занятости
const slotStep = 0.05

// Hit пересечение луча с кирпичом (ближайшая задетая часть)
type Hit struct {
	Brick    *PlacedBrick
	PartID   PartID
	Point    vec.Vec3Float
	Normal   vec.Vec3Float
	Distance float64
}

// indexedBrick запись индекса
type indexedBrick struct {
	brick  *PlacedBrick
	seq    uint64
	parts  []Part
	bounds physics.AABB // корпус вместе с шипами
	slot   vec.Vec3
}

// SpatialIndex живое множество размещённых кирпичей.
// Кирпичи хранятся по ID, части отображаются на владельца при вставке.
type SpatialIndex struct {
	mu       sync.RWMutex
	bricks   map[BrickID]*indexedBrick
	parts    map[PartID]BrickID
	slots    map[vec.Vec3]map[BrickID]struct{}
	nextSeq  uint64
	revision uint64
}

// NewSpatialIndex создаёт пустой индекс
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		bricks: make(map[BrickID]*indexedBrick),
		parts:  make(map[PartID]BrickID),
		slots:  make(map[vec.Vec3]map[BrickID]struct{}),
	}
}

// slotOf возвращает ключ занятости для позиции
func slotOf(pos vec.Vec3Float) vec.Vec3 {
	return pos.Quantize(slotStep)
}

// Add вставляет кирпич. Повторно вставляется тот же указатель, что был удалён.
func (si *SpatialIndex) Add(b *PlacedBrick) error {
	if b == nil || b.Type == nil {
		return fmt.Errorf("add brick: incomplete record")
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	if _, exists := si.bricks[b.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBrick, b.ID)
	}

	parts := b.Parts()
	bounds := parts[0].Box
	for _, p := range parts[1:] {
		bounds = bounds.Union(p.Box)
	}

	entry := &indexedBrick{
		brick:  b,
		seq:    si.nextSeq,
		parts:  parts,
		bounds: bounds,
		slot:   slotOf(b.Position),
	}
	si.nextSeq++

	for _, p := range parts {
		si.parts[p.ID] = b.ID
	}

	slot, ok := si.slots[entry.slot]
	if !ok {
		slot = make(map[BrickID]struct{})
		si.slots[entry.slot] = slot
	}
	slot[b.ID] = struct{}{}

	si.bricks[b.ID] = entry
	si.revision++
	return nil
}

// Remove удаляет кирпич и возвращает его запись
func (si *SpatialIndex) Remove(id BrickID) (*PlacedBrick, bool) {
	si.mu.Lock()
	defer si.mu.Unlock()

	entry, exists := si.bricks[id]
	if !exists {
		return nil, false
	}
	delete(si.bricks, id)

	for _, p := range entry.parts {
		delete(si.parts, p.ID)
	}

	if slot, ok := si.slots[entry.slot]; ok {
		delete(slot, id)
		if len(slot) == 0 {
			delete(si.slots, entry.slot)
		}
	}

	si.revision++
	return entry.brick, true
}

// Get возвращает кирпич по ID
func (si *SpatialIndex) Get(id BrickID) (*PlacedBrick, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	entry, ok := si.bricks[id]
	if !ok {
		return nil, false
	}
	return entry.brick, true
}

// Owner разрешает часть в кирпич верхнего уровня
func (si *SpatialIndex) Owner(part PartID) (*PlacedBrick, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	id, ok := si.parts[part]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrphanPart, part)
	}
	entry, ok := si.bricks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrOrphanPart, part, id)
	}
	return entry.brick, nil
}

// OccupantAt возвращает кирпич, центр которого совпадает с позицией
func (si *SpatialIndex) OccupantAt(pos vec.Vec3Float) (*PlacedBrick, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	var found *indexedBrick
	for id := range si.slots[slotOf(pos)] {
		entry := si.bricks[id]
		if found == nil || entry.seq < found.seq {
			found = entry
		}
	}
	if found == nil {
		return nil, false
	}
	return found.brick, true
}

// All возвращает кирпичи в порядке вставки
func (si *SpatialIndex) All() []*PlacedBrick {
	si.mu.RLock()
	entries := make([]*indexedBrick, 0, len(si.bricks))
	for _, entry := range si.bricks {
		entries = append(entries, entry)
	}
	si.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]*PlacedBrick, len(entries))
	for i, entry := range entries {
		result[i] = entry.brick
	}
	return result
}

// Len возвращает количество кирпичей
func (si *SpatialIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.bricks)
}

// PartCount возвращает количество индексированных частей
func (si *SpatialIndex) PartCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.parts)
}

// Revision растёт с каждой мутацией
func (si *SpatialIndex) Revision() uint64 {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.revision
}

// IntersectCandidates возвращает кирпичи, задетые лучом, от ближнего к дальнему.
// Для каждого кирпича берётся ближайшая задетая часть.
func (si *SpatialIndex) IntersectCandidates(ray physics.Ray) []Hit {
	type candidate struct {
		hit Hit
		seq uint64
	}

	si.mu.RLock()
	candidates := make([]candidate, 0)
	for _, entry := range si.bricks {
		// Грубая фаза по общему габариту
		if !entry.bounds.Contains(ray.Origin) {
			if _, _, ok := ray.IntersectAABB(entry.bounds); !ok {
				continue
			}
		}

		best := Hit{Distance: -1}
		for _, p := range entry.parts {
			dist, normal, ok := ray.IntersectAABB(p.Box)
			if !ok {
				continue
			}
			if best.Distance < 0 || dist < best.Distance {
				best = Hit{
					Brick:    entry.brick,
					PartID:   p.ID,
					Point:    ray.At(dist),
					Normal:   normal,
					Distance: dist,
				}
			}
		}
		if best.Distance >= 0 {
			candidates = append(candidates, candidate{hit: best, seq: entry.seq})
		}
	}
	si.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].hit.Distance != candidates[j].hit.Distance {
			return candidates[i].hit.Distance < candidates[j].hit.Distance
		}
		return candidates[i].seq < candidates[j].seq
	})

	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = c.hit
	}
	return hits
}

// GetStats возвращает статистику индекса
func (si *SpatialIndex) GetStats() string {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return fmt.Sprintf("SpatialIndex Stats: %d bricks, %d parts, %d slots, revision %d",
		len(si.bricks), len(si.parts), len(si.slots), si.revision)
}
