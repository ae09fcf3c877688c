package graph

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type entity struct {
	id     uuid.UUID
	kind   Kind
	schema *EntitySchema
	attrs  map[string]any
	toOne  map[string]uuid.UUID
	toMany map[string]map[uuid.UUID]struct{}
}

func newEntity(id uuid.UUID, s *EntitySchema) *entity {
	e := &entity{
		id:     id,
		kind:   s.Kind,
		schema: s,
		attrs:  make(map[string]any),
		toOne:  make(map[string]uuid.UUID),
		toMany: make(map[string]map[uuid.UUID]struct{}),
	}
	for name, r := range s.Relationships {
		if r.Arity == ToMany {
			e.toMany[name] = make(map[uuid.UUID]struct{})
		}
	}
	return e
}

// Store 内存中的实体图, 所有操作都持有同一把读写锁
type Store struct {
	mu       sync.RWMutex
	entities map[uuid.UUID]*entity
	log      logrus.FieldLogger
}

// Option Store 的可选配置
type Option func(*Store)

// WithLogger 替换默认的 logrus 标准 logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entities: make(map[uuid.UUID]*entity),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEntity 新建一个实体, 所有属性都未设置
func (s *Store) CreateEntity(kind Kind) (uuid.UUID, error) {
	schema, err := SchemaOf(kind)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	s.mu.Lock()
	s.entities[id] = newEntity(id, schema)
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"id": id, "kind": kind}).Debug("创建实体")
	return id, nil
}

// Restore 用已知的 id 插入实体, 从数据库加载时使用
func (s *Store) Restore(id uuid.UUID, kind Kind) error {
	schema, err := SchemaOf(kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[id]; ok {
		return errorf(ErrExists, "%s", id)
	}
	s.entities[id] = newEntity(id, schema)
	return nil
}

// Kind 返回实体的类型
func (s *Store) Kind(id uuid.UUID) (Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return KindAny, err
	}
	return e.kind, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Entities 某一类型的全部实体 id
func (s *Store) Entities(kind Kind) ([]uuid.UUID, error) {
	if _, err := SchemaOf(kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for id, e := range s.entities {
		if e.kind == kind {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids, nil
}

// GetAttribute 第二个返回值为 false 表示属性未设置
func (s *Store) GetAttribute(id uuid.UUID, name string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return nil, false, err
	}
	name, _, err = e.schema.attribute(name)
	if err != nil {
		return nil, false, err
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

// SetAttribute 检查类型后写入, value 为 nil 时清除属性
func (s *Store) SetAttribute(id uuid.UUID, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	name, t, err := e.schema.attribute(name)
	if err != nil {
		return err
	}
	if value == nil {
		delete(e.attrs, name)
		return nil
	}
	if d, ok := value.(*Description); ok && d == nil {
		delete(e.attrs, name)
		return nil
	}
	v, ok := t.accepts(value)
	if !ok {
		return errorf(ErrTypeMismatch, "%s.%s wants %s, got %T", e.kind, name, t, value)
	}
	e.attrs[name] = v
	return nil
}

// GetRelationship 读取对一关系
func (s *Store) GetRelationship(id uuid.UUID, name string) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return uuid.Nil, false, err
	}
	if _, err := e.schema.relationship(name, ToOne); err != nil {
		return uuid.Nil, false, err
	}
	target, ok := e.toOne[name]
	return target, ok, nil
}

// SetRelationship 设置对一关系, 有反向关系时同时维护反向集合
func (s *Store) SetRelationship(id uuid.UUID, name string, target uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	rel, err := e.schema.relationship(name, ToOne)
	if err != nil {
		return err
	}
	t, err := s.target(rel, target)
	if err != nil {
		return err
	}
	if rel.Inverse == "" {
		e.toOne[name] = target
		return nil
	}
	inv, err := t.schema.relationship(rel.Inverse, ToMany)
	if err != nil {
		return err
	}
	s.link(t, inv, e)
	return nil
}

// ClearRelationship 清除对一关系
func (s *Store) ClearRelationship(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	rel, err := e.schema.relationship(name, ToOne)
	if err != nil {
		return err
	}
	cur, ok := e.toOne[name]
	if !ok {
		return nil
	}
	if owner, found := s.entities[cur]; found && rel.Inverse != "" {
		if inv, err := owner.schema.relationship(rel.Inverse, ToMany); err == nil {
			s.unlink(owner, inv, e)
			return nil
		}
	}
	delete(e.toOne, name)
	return nil
}

// Members 对多关系的成员, 按 id 排序
func (s *Store) Members(id uuid.UUID, name string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if _, err := e.schema.relationship(name, ToMany); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(e.toMany[name]))
	for m := range e.toMany[name] {
		ids = append(ids, m)
	}
	sortIDs(ids)
	return ids, nil
}

func (s *Store) AddToManyMember(id uuid.UUID, name string, target uuid.UUID) error {
	return s.AddToManyMembers(id, name, target)
}

func (s *Store) RemoveToManyMember(id uuid.UUID, name string, target uuid.UUID) error {
	return s.RemoveToManyMembers(id, name, target)
}

// AddToManyMembers 先检查全部目标, 有一个不合法就什么都不改
func (s *Store) AddToManyMembers(id uuid.UUID, name string, targets ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, rel, members, err := s.toManyOperands(id, name, targets)
	if err != nil {
		return err
	}
	for _, m := range members {
		s.link(owner, rel, m)
	}
	s.log.WithFields(logrus.Fields{"id": id, "relationship": name, "count": len(members)}).Debug("添加关系成员")
	return nil
}

// RemoveToManyMembers 不在集合中的目标直接忽略
func (s *Store) RemoveToManyMembers(id uuid.UUID, name string, targets ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, rel, members, err := s.toManyOperands(id, name, targets)
	if err != nil {
		return err
	}
	for _, m := range members {
		s.unlink(owner, rel, m)
	}
	s.log.WithFields(logrus.Fields{"id": id, "relationship": name, "count": len(members)}).Debug("移除关系成员")
	return nil
}

// DeleteEntity 删除实体, 不级联; 其他实体指向它的引用全部置空
func (s *Store) DeleteEntity(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(id); err != nil {
		return err
	}
	for _, other := range s.entities {
		for name, target := range other.toOne {
			if target == id {
				delete(other.toOne, name)
			}
		}
		for _, set := range other.toMany {
			delete(set, id)
		}
	}
	delete(s.entities, id)
	s.log.WithField("id", id).Debug("删除实体")
	return nil
}

func (s *Store) get(id uuid.UUID) (*entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, errorf(ErrNotFound, "%s", id)
	}
	return e, nil
}

func (s *Store) target(rel Relationship, id uuid.UUID) (*entity, error) {
	t, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if rel.Target != KindAny && t.kind != rel.Target {
		return nil, errorf(ErrKindMismatch, "%s wants %s, got %s", rel.Name, rel.Target, t.kind)
	}
	return t, nil
}

func (s *Store) toManyOperands(id uuid.UUID, name string, targets []uuid.UUID) (*entity, Relationship, []*entity, error) {
	owner, err := s.get(id)
	if err != nil {
		return nil, Relationship{}, nil, err
	}
	rel, err := owner.schema.relationship(name, ToMany)
	if err != nil {
		return nil, Relationship{}, nil, err
	}
	members := make([]*entity, 0, len(targets))
	for _, t := range targets {
		m, err := s.target(rel, t)
		if err != nil {
			return nil, Relationship{}, nil, err
		}
		members = append(members, m)
	}
	return owner, rel, members, nil
}

// link 把 member 加入 owner 的集合, 并把 member 的反向引用指向 owner
// 调用方必须持有写锁
func (s *Store) link(owner *entity, rel Relationship, member *entity) {
	if rel.Inverse != "" {
		if prev, ok := member.toOne[rel.Inverse]; ok && prev != owner.id {
			if old, found := s.entities[prev]; found {
				delete(old.toMany[rel.Name], member.id)
			}
		}
		member.toOne[rel.Inverse] = owner.id
	}
	owner.toMany[rel.Name][member.id] = struct{}{}
}

// unlink 调用方必须持有写锁
func (s *Store) unlink(owner *entity, rel Relationship, member *entity) {
	delete(owner.toMany[rel.Name], member.id)
	if rel.Inverse != "" && member.toOne[rel.Inverse] == owner.id {
		delete(member.toOne, rel.Inverse)
	}
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
