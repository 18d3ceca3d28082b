package domain

import "time"

// CatalogLog audit record of a catalog mutation
type CatalogLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Action      string    `gorm:"size:32;index" json:"action"`
	ProductID   int64     `gorm:"index" json:"product_id,string"`
	ProductName string    `gorm:"size:255" json:"product_name"`
	Detail      string    `gorm:"type:text" json:"detail"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (CatalogLog) TableName() string {
	return "catalog_log"
}
