package loader

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toddlerya/entitygraph/graph"
	"github.com/toddlerya/entitygraph/model"
)

func TestGenerators(t *testing.T) {
	s := graph.NewStore()
	tests := []struct {
		kind  graph.Kind
		gen   func(*graph.Store) (uuid.UUID, error)
		attrs []string
	}{
		{graph.KindStudent, GenerateStudent, []string{"name", "age"}},
		{graph.KindTeacher, GenerateTeacher, []string{"name", "subject"}},
		{graph.KindDepartment, GenerateDepartment, []string{"depName", "createDate", "depDescription"}},
		{graph.KindEmployee, GenerateEmployee, []string{"name", "age", "birthday", "height"}},
		{graph.KindUser, GenerateUser, []string{"username", "age", "sectionName"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			id, err := tt.gen(s)
			require.NoError(t, err)
			kind, err := s.Kind(id)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			for _, name := range tt.attrs {
				_, ok, err := s.GetAttribute(id, name)
				require.NoError(t, err)
				assert.True(t, ok, name)
			}
		})
	}
}

func TestPopulateKeepsInverseSymmetric(t *testing.T) {
	s := graph.NewStore()
	sizes := Sizes{Departments: 3, Employees: 10, Teachers: 4, Students: 30, Users: 5}
	require.NoError(t, Populate(s, sizes))
	assert.Equal(t, 52, s.Len())

	teachers, err := s.Entities(graph.KindTeacher)
	require.NoError(t, err)
	total := 0
	for _, teacher := range teachers {
		members, err := s.Members(teacher, "students")
		require.NoError(t, err)
		total += len(members)
		for _, st := range members {
			owner, ok, err := s.GetRelationship(st, "teacher")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, teacher, owner)
		}
	}
	assert.Equal(t, sizes.Students, total)

	departments, _ := s.Entities(graph.KindDepartment)
	for _, d := range departments {
		emp, ok, err := s.GetRelationship(d, "employee")
		require.NoError(t, err)
		if !ok {
			continue
		}
		dep, ok, err := s.GetRelationship(emp, "department")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, d, dep)
	}
}

func TestInsertGraph(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "loader.db")
	db, err := model.Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	s := graph.NewStore()
	require.NoError(t, Populate(s, Sizes{Departments: 1, Employees: 2, Teachers: 1, Students: 3, Users: 1}))
	require.NoError(t, InsertGraph(db, s))

	var count int64
	require.NoError(t, db.Read.Model(&model.Student{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
