package graph

import (
	"github.com/google/uuid"
)

// Record 某一时刻一个实体的完整拷贝
type Record struct {
	ID         uuid.UUID
	Kind       Kind
	Attributes map[string]any
	ToOne      map[string]uuid.UUID
	ToMany     map[string][]uuid.UUID
}

// Snapshot 在读锁内拷贝全部实体, 按 id 排序
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sortIDs(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		e := s.entities[id]
		r := Record{
			ID:         id,
			Kind:       e.kind,
			Attributes: make(map[string]any, len(e.attrs)),
			ToOne:      make(map[string]uuid.UUID, len(e.toOne)),
			ToMany:     make(map[string][]uuid.UUID, len(e.toMany)),
		}
		for k, v := range e.attrs {
			r.Attributes[k] = v
		}
		for k, v := range e.toOne {
			r.ToOne[k] = v
		}
		for k, set := range e.toMany {
			members := make([]uuid.UUID, 0, len(set))
			for m := range set {
				members = append(members, m)
			}
			sortIDs(members)
			r.ToMany[k] = members
		}
		records = append(records, r)
	}
	return records
}
