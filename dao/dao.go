package dao

import (
	"gorm.io/gorm"

	"transtelco-billing/common/database/orm"
)

// Dao wraps the billing store (the monthly CDR tables).
type Dao struct {
	db *gorm.DB
}

func New(c *orm.Config) *Dao {
	return &Dao{db: orm.NewMySQL(c)}
}

// NewWithDB exists for tests that inject their own connection.
func NewWithDB(db *gorm.DB) *Dao {
	return &Dao{db: db}
}
