package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toddlerya/entitygraph/graph"
	"gorm.io/gorm"
)

const batchSize = 100

// SaveGraph 在一个事务里把整个图写入数据库, 覆盖之前的内容
func (db *DB) SaveGraph(s *graph.Store) error {
	records := s.Snapshot()
	kinds := make(map[uuid.UUID]graph.Kind, len(records))
	for _, r := range records {
		kinds[r.ID] = r.Kind
	}

	var (
		departments []*Department
		employees   []*Employee
		students    []*Student
		teachers    []*Teacher
		users       []*User
	)
	for _, r := range records {
		base := Base{ID: r.ID.String()}
		switch r.Kind {
		case graph.KindDepartment:
			row := &Department{
				Base:       base,
				CreateDate: timestamp(r.Attributes, "createDate"),
				DepName:    text(r.Attributes, "depName"),
			}
			if d, ok := r.Attributes["depDescription"].(graph.Description); ok {
				blob, err := graph.EncodeDescription(d)
				if err != nil {
					return fmt.Errorf("department %s: %w", r.ID, err)
				}
				row.DepDescription = blob
			}
			if target, ok := r.ToOne["employee"]; ok {
				row.EmployeeID = ref(target)
				k := string(kinds[target])
				row.EmployeeKind = &k
			}
			departments = append(departments, row)
		case graph.KindEmployee:
			employees = append(employees, &Employee{
				Base:         base,
				Birthday:     timestamp(r.Attributes, "birthday"),
				Height:       decimal(r.Attributes, "height"),
				Name:         text(r.Attributes, "name"),
				Age:          decimal(r.Attributes, "age"),
				DepartmentID: toOne(r.ToOne, "department"),
			})
		case graph.KindStudent:
			students = append(students, &Student{
				Base:      base,
				Name:      text(r.Attributes, "name"),
				Age:       decimal(r.Attributes, "age"),
				TeacherID: toOne(r.ToOne, "teacher"),
			})
		case graph.KindTeacher:
			teachers = append(teachers, &Teacher{
				Base:    base,
				Subject: text(r.Attributes, "subject"),
				Name:    text(r.Attributes, "name"),
			})
		case graph.KindUser:
			users = append(users, &User{
				Base:        base,
				Username:    text(r.Attributes, "username"),
				Age:         text(r.Attributes, "age"),
				SectionName: text(r.Attributes, "sectionName"),
			})
		}
	}

	err := db.Write.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables() {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		if err := insert(tx, departments); err != nil {
			return err
		}
		if err := insert(tx, employees); err != nil {
			return err
		}
		if err := insert(tx, students); err != nil {
			return err
		}
		if err := insert(tx, teachers); err != nil {
			return err
		}
		return insert(tx, users)
	})
	if err != nil {
		logrus.Errorf("保存实体图失败: %s", err.Error())
		return fmt.Errorf("save graph: %w", err)
	}
	logrus.WithField("entities", len(records)).Info("实体图已保存")
	return nil
}

func insert[T any](tx *gorm.DB, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, batchSize).Error
}

// LoadGraph 从只读连接读出全部数据, 重建一个新的图
func (db *DB) LoadGraph(opts ...graph.Option) (*graph.Store, error) {
	var (
		departments []Department
		employees   []Employee
		students    []Student
		teachers    []Teacher
		users       []User
	)
	for _, dest := range []interface{}{&departments, &employees, &students, &teachers, &users} {
		if err := db.Read.Find(dest).Error; err != nil {
			logrus.Errorf("读取实体失败: %s", err.Error())
			return nil, fmt.Errorf("load graph: %w", err)
		}
	}

	s := graph.NewStore(opts...)
	l := &graphLoader{store: s}

	// 先创建全部实体, 再设置属性和关系
	for _, r := range departments {
		l.restore(r.ID, graph.KindDepartment)
	}
	for _, r := range employees {
		l.restore(r.ID, graph.KindEmployee)
	}
	for _, r := range students {
		l.restore(r.ID, graph.KindStudent)
	}
	for _, r := range teachers {
		l.restore(r.ID, graph.KindTeacher)
	}
	for _, r := range users {
		l.restore(r.ID, graph.KindUser)
	}

	for _, r := range departments {
		id := l.id(r.ID)
		l.set(id, "createDate", r.CreateDate)
		l.set(id, "depName", r.DepName)
		if len(r.DepDescription) > 0 {
			d, err := graph.DecodeDescription(r.DepDescription)
			if err != nil {
				l.fail(fmt.Errorf("department %s: %w", r.ID, err))
			} else {
				l.set(id, "depDescription", d)
			}
		}
		l.relate(id, "employee", r.EmployeeID)
	}
	for _, r := range employees {
		id := l.id(r.ID)
		l.set(id, "birthday", r.Birthday)
		l.set(id, "height", r.Height)
		l.set(id, "name", r.Name)
		l.set(id, "age", r.Age)
		l.relate(id, "department", r.DepartmentID)
	}
	for _, r := range students {
		id := l.id(r.ID)
		l.set(id, "name", r.Name)
		l.set(id, "age", r.Age)
		l.relate(id, "teacher", r.TeacherID)
	}
	for _, r := range teachers {
		id := l.id(r.ID)
		l.set(id, "subject", r.Subject)
		l.set(id, "name", r.Name)
	}
	for _, r := range users {
		id := l.id(r.ID)
		l.set(id, "username", r.Username)
		l.set(id, "age", r.Age)
		l.set(id, "sectionName", r.SectionName)
	}

	if l.err != nil {
		logrus.Errorf("重建实体图失败: %s", l.err.Error())
		return nil, fmt.Errorf("load graph: %w", l.err)
	}
	logrus.WithField("entities", s.Len()).Info("实体图已加载")
	return s, nil
}

// graphLoader 记录第一个错误, 之后的调用都直接跳过
type graphLoader struct {
	store *graph.Store
	err   error
}

func (l *graphLoader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *graphLoader) id(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		l.fail(fmt.Errorf("entity id %q: %w", raw, err))
	}
	return id
}

func (l *graphLoader) restore(raw string, kind graph.Kind) {
	id := l.id(raw)
	if l.err != nil {
		return
	}
	l.fail(l.store.Restore(id, kind))
}

// set 只写入非空的列
func (l *graphLoader) set(id uuid.UUID, name string, value any) {
	if l.err != nil {
		return
	}
	switch v := value.(type) {
	case *string:
		if v == nil {
			return
		}
		value = *v
	case *float64:
		if v == nil {
			return
		}
		value = *v
	case *time.Time:
		if v == nil {
			return
		}
		value = *v
	}
	l.fail(l.store.SetAttribute(id, name, value))
}

func (l *graphLoader) relate(id uuid.UUID, name string, target *string) {
	if l.err != nil || target == nil {
		return
	}
	t := l.id(*target)
	if l.err != nil {
		return
	}
	l.fail(l.store.SetRelationship(id, name, t))
}

func text(attrs map[string]any, name string) *string {
	if v, ok := attrs[name].(string); ok {
		return &v
	}
	return nil
}

func decimal(attrs map[string]any, name string) *float64 {
	if v, ok := attrs[name].(float64); ok {
		return &v
	}
	return nil
}

func timestamp(attrs map[string]any, name string) *time.Time {
	if v, ok := attrs[name].(time.Time); ok {
		return &v
	}
	return nil
}

func ref(id uuid.UUID) *string {
	s := id.String()
	return &s
}

func toOne(refs map[string]uuid.UUID, name string) *string {
	if id, ok := refs[name]; ok {
		return ref(id)
	}
	return nil
}
