package loader

import (
	"strconv"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toddlerya/entitygraph/graph"
	"github.com/toddlerya/entitygraph/model"
)

var subjects = []string{"Math", "Physics", "Chemistry", "History", "English", "Music"}

// entity 新建实体并按顺序写入属性
func entity(s *graph.Store, kind graph.Kind, attrs ...any) (uuid.UUID, error) {
	id, err := s.CreateEntity(kind)
	if err != nil {
		return uuid.Nil, err
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		if err := s.SetAttribute(id, attrs[i].(string), attrs[i+1]); err != nil {
			return uuid.Nil, err
		}
	}
	return id, nil
}

func GenerateStudent(s *graph.Store) (uuid.UUID, error) {
	return entity(s, graph.KindStudent,
		"name", randomdata.FullName(randomdata.RandomGender),
		"age", float64(randomdata.Number(6, 19)),
	)
}

func GenerateTeacher(s *graph.Store) (uuid.UUID, error) {
	return entity(s, graph.KindTeacher,
		"name", randomdata.FullName(randomdata.RandomGender),
		"subject", randomdata.StringSample(subjects...),
	)
}

func GenerateDepartment(s *graph.Store) (uuid.UUID, error) {
	return entity(s, graph.KindDepartment,
		"depName", randomdata.City(),
		"createDate", time.Now().AddDate(0, 0, -randomdata.Number(0, 3650)),
		"depDescription", graph.Description{
			LeaderName:    randomdata.FullName(randomdata.RandomGender),
			EmployeeCount: int64(randomdata.Number(1, 500)),
		},
	)
}

func GenerateEmployee(s *graph.Store) (uuid.UUID, error) {
	age := randomdata.Number(20, 61)
	return entity(s, graph.KindEmployee,
		"name", randomdata.FullName(randomdata.RandomGender),
		"age", float64(age),
		"birthday", time.Now().AddDate(-age, 0, -randomdata.Number(0, 365)),
		"height", randomdata.Decimal(150, 200, 1),
	)
}

func GenerateUser(s *graph.Store) (uuid.UUID, error) {
	return entity(s, graph.KindUser,
		"username", randomdata.SillyName(),
		"age", strconv.Itoa(randomdata.Number(18, 80)),
		"sectionName", randomdata.State(randomdata.Large),
	)
}

// GenerateList 调用 n 次 gen
func GenerateList(s *graph.Store, n int, gen func(*graph.Store) (uuid.UUID, error)) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		id, err := gen(s)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AssignStudents 每个学生随机分给一个老师
func AssignStudents(s *graph.Store, teachers, students []uuid.UUID) error {
	if len(teachers) == 0 {
		return nil
	}
	for _, st := range students {
		t := teachers[randomdata.Number(0, len(teachers))]
		if err := s.AddToManyMember(t, "students", st); err != nil {
			return err
		}
	}
	return nil
}

// AssignEmployees 员工随机分到部门, 每个部门的 employee 指向它的第一个员工
func AssignEmployees(s *graph.Store, departments, employees []uuid.UUID) error {
	if len(departments) == 0 {
		return nil
	}
	for _, e := range employees {
		d := departments[randomdata.Number(0, len(departments))]
		if err := s.SetRelationship(e, "department", d); err != nil {
			return err
		}
		if _, ok, err := s.GetRelationship(d, "employee"); err != nil {
			return err
		} else if !ok {
			if err := s.SetRelationship(d, "employee", e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sizes 每种实体生成的数量
type Sizes struct {
	Departments int
	Employees   int
	Teachers    int
	Students    int
	Users       int
}

// Populate 生成全部实体并建立关系
func Populate(s *graph.Store, sizes Sizes) error {
	departments, err := GenerateList(s, sizes.Departments, GenerateDepartment)
	if err != nil {
		return err
	}
	employees, err := GenerateList(s, sizes.Employees, GenerateEmployee)
	if err != nil {
		return err
	}
	teachers, err := GenerateList(s, sizes.Teachers, GenerateTeacher)
	if err != nil {
		return err
	}
	students, err := GenerateList(s, sizes.Students, GenerateStudent)
	if err != nil {
		return err
	}
	if _, err := GenerateList(s, sizes.Users, GenerateUser); err != nil {
		return err
	}
	if err := AssignEmployees(s, departments, employees); err != nil {
		return err
	}
	if err := AssignStudents(s, teachers, students); err != nil {
		return err
	}
	logrus.Infof("生成数据: %d", s.Len())
	return nil
}

func InsertGraph(db *model.DB, s *graph.Store) error {
	if err := db.SaveGraph(s); err != nil {
		logrus.Error(err)
		return err
	}
	return nil
}
