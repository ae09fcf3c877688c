package graph

import (
	"sort"
	"time"
)

// Kind 实体类型
type Kind string

const (
	KindDepartment Kind = "Department"
	KindEmployee   Kind = "Employee"
	KindStudent    Kind = "Student"
	KindTeacher    Kind = "Teacher"
	KindUser       Kind = "User"

	// KindAny 只用于无类型的对一关系目标
	KindAny Kind = ""
)

// AttrType 属性的语义类型
type AttrType int

const (
	TypeText AttrType = iota + 1
	TypeTimestamp
	TypeDecimal
	TypeInteger
	TypeDescription
)

func (t AttrType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeDecimal:
		return "decimal"
	case TypeInteger:
		return "integer"
	case TypeDescription:
		return "description"
	}
	return "unknown"
}

// accepts 判断值是否符合声明的类型, 返回需要保存的值
func (t AttrType) accepts(v any) (any, bool) {
	switch t {
	case TypeText:
		s, ok := v.(string)
		return s, ok
	case TypeTimestamp:
		ts, ok := v.(time.Time)
		return ts, ok
	case TypeDecimal:
		f, ok := v.(float64)
		return f, ok
	case TypeInteger:
		switch n := v.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		}
	case TypeDescription:
		switch d := v.(type) {
		case Description:
			return d, true
		case *Description:
			if d != nil {
				return *d, true
			}
		}
	}
	return nil, false
}

// Arity 关系的数量
type Arity int

const (
	ToOne Arity = iota + 1
	ToMany
)

// Relationship 关系声明
type Relationship struct {
	Name    string
	Arity   Arity
	Target  Kind
	Inverse string
}

// EntitySchema 一个实体类型的固定结构
type EntitySchema struct {
	Kind          Kind
	Attributes    map[string]AttrType
	Relationships map[string]Relationship
	// Aliases 旧的属性名 -> 现在的属性名
	Aliases map[string]string
}

var schemas = map[Kind]*EntitySchema{
	KindDepartment: {
		Kind: KindDepartment,
		Attributes: map[string]AttrType{
			"createDate":     TypeTimestamp,
			"depName":        TypeText,
			"depDescription": TypeDescription,
		},
		Relationships: map[string]Relationship{
			"employee": {Name: "employee", Arity: ToOne, Target: KindAny},
		},
	},
	KindEmployee: {
		Kind: KindEmployee,
		Attributes: map[string]AttrType{
			"birthday": TypeTimestamp,
			"height":   TypeDecimal,
			"name":     TypeText,
			"age":      TypeDecimal,
		},
		Relationships: map[string]Relationship{
			"department": {Name: "department", Arity: ToOne, Target: KindDepartment},
		},
		Aliases: map[string]string{"brithday": "birthday"},
	},
	KindStudent: {
		Kind: KindStudent,
		Attributes: map[string]AttrType{
			"name": TypeText,
			"age":  TypeDecimal,
		},
		Relationships: map[string]Relationship{
			"teacher": {Name: "teacher", Arity: ToOne, Target: KindTeacher, Inverse: "students"},
		},
	},
	KindTeacher: {
		Kind: KindTeacher,
		Attributes: map[string]AttrType{
			"subject": TypeText,
			"name":    TypeText,
		},
		Relationships: map[string]Relationship{
			"students": {Name: "students", Arity: ToMany, Target: KindStudent, Inverse: "teacher"},
		},
	},
	KindUser: {
		Kind: KindUser,
		Attributes: map[string]AttrType{
			"username":    TypeText,
			"age":         TypeText,
			"sectionName": TypeText,
		},
	},
}

// SchemaOf 返回实体类型的结构, 未知类型返回 ErrInvalidKind
func SchemaOf(kind Kind) (*EntitySchema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, errorf(ErrInvalidKind, "%q", string(kind))
	}
	return s, nil
}

// Kinds 所有实体类型, 按名称排序
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (s *EntitySchema) attribute(name string) (string, AttrType, error) {
	if canonical, ok := s.Aliases[name]; ok {
		name = canonical
	}
	t, ok := s.Attributes[name]
	if !ok {
		return "", 0, errorf(ErrUnknownAttribute, "%s.%s", s.Kind, name)
	}
	return name, t, nil
}

func (s *EntitySchema) relationship(name string, arity Arity) (Relationship, error) {
	r, ok := s.Relationships[name]
	if !ok {
		return Relationship{}, errorf(ErrUnknownRelationship, "%s.%s", s.Kind, name)
	}
	if r.Arity != arity {
		return Relationship{}, errorf(ErrArity, "%s.%s", s.Kind, name)
	}
	return r, nil
}

// AttributeNames 属性名, 排序后返回
func (s *EntitySchema) AttributeNames() []string {
	names := make([]string, 0, len(s.Attributes))
	for n := range s.Attributes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
