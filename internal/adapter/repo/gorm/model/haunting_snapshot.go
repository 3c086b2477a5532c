package model

import (
	"time"
)

const TableNameHauntingSnapshot = "haunting_snapshots"

// HauntingSnapshot mapped from table <haunting_snapshots>
type HauntingSnapshot struct {
	Key       string    `gorm:"column:key;primaryKey" json:"key"`
	Value     string    `gorm:"column:value;not null" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

// TableName HauntingSnapshot's table name
func (*HauntingSnapshot) TableName() string {
	return TableNameHauntingSnapshot
}
