package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/toddlerya/entitygraph/graph"
)

func TestCheckSymmetry(t *testing.T) {
	teacher, student := uuid.New(), uuid.New()
	records := []graph.Record{
		{ID: teacher, Kind: graph.KindTeacher, ToMany: map[string][]uuid.UUID{"students": {student}}},
		{ID: student, Kind: graph.KindStudent, ToOne: map[string]uuid.UUID{"teacher": teacher}},
	}
	assert.Zero(t, checkSymmetry(records))

	records[0].ToMany["students"] = nil
	assert.Equal(t, 1, checkSymmetry(records))
}
