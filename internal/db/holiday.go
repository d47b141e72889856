package db

import "time"

// Holiday 节假日日历中的一天，DateKey 为 YYYY-MM-DD
type Holiday struct {
	ID        uint   `gorm:"primaryKey"`
	DateKey   string `gorm:"size:10;uniqueIndex;not null"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 自定义表名
func (Holiday) TableName() string {
	return "holidays"
}
