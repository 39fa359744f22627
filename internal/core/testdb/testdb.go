// Package testdb opens an in-memory SQLite database with the full schema for
// repository and end-to-end tests.
package testdb

import (
	"fmt"
	"time"

	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
	employeeDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/employee"
	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table in dependency order.
var Models = []interface{}{
	&userDatamodel.User{},
	&userDatamodel.Permission{},
	&userDatamodel.UserPermission{},
	&designationDatamodel.Designation{},
	&employeeDatamodel.Employee{},
	&employeeDatamodel.Sequence{},
	&feedbackDatamodel.Question{},
	&feedbackDatamodel.Submission{},
	&feedbackDatamodel.Answer{},
}

type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

// Open returns a fresh schema. The pool is pinned to one connection because
// every new SQLite memory connection is a separate database.
func Open() (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := gdb.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{Gorm: gdb, SQLX: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

// MustOpen is Open for test setup blocks.
func MustOpen() *DB {
	db, err := Open()
	if err != nil {
		panic(err)
	}
	return db
}
