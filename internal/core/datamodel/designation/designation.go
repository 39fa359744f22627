package designation

import "time"

type Designation struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:100;uniqueIndex:designations_name_key;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Designation) TableName() string { return "designations" }
