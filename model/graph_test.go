package model

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toddlerya/entitygraph/graph"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.ReadConns = 2
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadGraph(t *testing.T) {
	db := openTestDB(t)
	s := graph.NewStore()

	created := time.Date(2016, 8, 26, 9, 30, 0, 0, time.UTC)
	dep, _ := s.CreateEntity(graph.KindDepartment)
	require.NoError(t, s.SetAttribute(dep, "depName", "研发部"))
	require.NoError(t, s.SetAttribute(dep, "createDate", created))
	require.NoError(t, s.SetAttribute(dep, "depDescription", graph.Description{LeaderName: "Wang", EmployeeCount: 8}))

	emp, _ := s.CreateEntity(graph.KindEmployee)
	require.NoError(t, s.SetAttribute(emp, "name", "Zhao"))
	require.NoError(t, s.SetAttribute(emp, "height", 1.82))
	require.NoError(t, s.SetRelationship(emp, "department", dep))
	require.NoError(t, s.SetRelationship(dep, "employee", emp))

	teacher, _ := s.CreateEntity(graph.KindTeacher)
	require.NoError(t, s.SetAttribute(teacher, "name", "Lee"))
	require.NoError(t, s.SetAttribute(teacher, "subject", "Math"))
	ann, _ := s.CreateEntity(graph.KindStudent)
	bob, _ := s.CreateEntity(graph.KindStudent)
	require.NoError(t, s.SetAttribute(ann, "name", "Ann"))
	require.NoError(t, s.SetAttribute(ann, "age", 12.0))
	require.NoError(t, s.AddToManyMembers(teacher, "students", ann, bob))

	user, _ := s.CreateEntity(graph.KindUser)
	require.NoError(t, s.SetAttribute(user, "username", "xiaozhuang"))
	require.NoError(t, s.SetAttribute(user, "age", "26"))

	require.NoError(t, db.SaveGraph(s))
	loaded, err := db.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, s.Len(), loaded.Len())

	got, ok, err := loaded.GetAttribute(dep, "createDate")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, created.Equal(got.(time.Time)))

	got, _, _ = loaded.GetAttribute(dep, "depDescription")
	assert.Equal(t, graph.Description{LeaderName: "Wang", EmployeeCount: 8}, got)
	got, _, _ = loaded.GetAttribute(emp, "height")
	assert.Equal(t, 1.82, got)
	_, ok, _ = loaded.GetAttribute(emp, "age")
	assert.False(t, ok, "unset attributes stay unset")

	target, ok, _ := loaded.GetRelationship(emp, "department")
	require.True(t, ok)
	assert.Equal(t, dep, target)
	target, ok, _ = loaded.GetRelationship(dep, "employee")
	require.True(t, ok)
	assert.Equal(t, emp, target)

	members, err := loaded.Members(teacher, "students")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{ann, bob}, members)
	got, _, _ = loaded.GetAttribute(ann, "age")
	assert.Equal(t, 12.0, got)
	got, _, _ = loaded.GetAttribute(user, "age")
	assert.Equal(t, "26", got)

	var row Department
	require.NoError(t, db.Read.Take(&row, "id = ?", dep.String()).Error)
	require.NotNil(t, row.EmployeeKind)
	assert.Equal(t, string(graph.KindEmployee), *row.EmployeeKind)
}

func TestSaveGraphReplacesPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)
	s := graph.NewStore()
	teacher, _ := s.CreateEntity(graph.KindTeacher)
	student, _ := s.CreateEntity(graph.KindStudent)
	require.NoError(t, s.AddToManyMember(teacher, "students", student))
	require.NoError(t, db.SaveGraph(s))

	require.NoError(t, s.DeleteEntity(teacher))
	require.NoError(t, db.SaveGraph(s))

	var count int64
	require.NoError(t, db.Read.Model(&Teacher{}).Count(&count).Error)
	assert.Zero(t, count)

	var row Student
	require.NoError(t, db.Read.Take(&row, "id = ?", student.String()).Error)
	assert.Nil(t, row.TeacherID)
}

func TestLoadEmptyGraph(t *testing.T) {
	db := openTestDB(t)
	s, err := db.LoadGraph()
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestLoadGraphRejectsBadDescription(t *testing.T) {
	db := openTestDB(t)
	name := "broken"
	row := &Department{Base: Base{ID: uuid.NewString()}, DepName: &name, DepDescription: []byte{0x7f}}
	require.NoError(t, db.Write.Create(row).Error)

	_, err := db.LoadGraph()
	assert.ErrorIs(t, err, graph.ErrMalformed)
}

func TestReadConnectionIsQueryOnly(t *testing.T) {
	db := openTestDB(t)
	name := "x"
	err := db.Read.Create(&User{Base: Base{ID: uuid.NewString()}, Username: &name}).Error
	assert.Error(t, err)
}
