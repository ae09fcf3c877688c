package model

import (
	"time"
)

// Base 所有表共用的字段, id 是图中实体的 uuid
type Base struct {
	ID        string `gorm:"column:id;primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Department struct {
	Base
	CreateDate *time.Time `gorm:"column:create_date"`
	DepName    *string    `gorm:"column:dep_name"`
	// depDescription 按 graph.EncodeDescription 的格式保存
	DepDescription []byte  `gorm:"column:dep_description"`
	EmployeeID     *string `gorm:"column:employee_id;size:36"`
	EmployeeKind   *string `gorm:"column:employee_kind"`
}

type Employee struct {
	Base
	Birthday     *time.Time `gorm:"column:birthday"`
	Height       *float64   `gorm:"column:height"`
	Name         *string    `gorm:"column:name"`
	Age          *float64   `gorm:"column:age"`
	DepartmentID *string    `gorm:"column:department_id;size:36;index"`
}

type Student struct {
	Base
	Name      *string  `gorm:"column:name"`
	Age       *float64 `gorm:"column:age"`
	TeacherID *string  `gorm:"column:teacher_id;size:36;index"`
}

type Teacher struct {
	Base
	Subject *string `gorm:"column:subject"`
	Name    *string `gorm:"column:name"`
}

type User struct {
	Base
	Username    *string `gorm:"column:username"`
	Age         *string `gorm:"column:age"`
	SectionName *string `gorm:"column:section_name"`
}

// tables 迁移和清空时使用的全部表
func tables() []interface{} {
	return []interface{}{&Department{}, &Employee{}, &Student{}, &Teacher{}, &User{}}
}
