package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Conn returns a gorm handle bound to ctx and, when tx is not nil, routed
// through that *sql.Tx so repository calls join the service transaction.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	if tx == nil {
		return db.WithContext(ctx)
	}

	conn := db.Session(&gorm.Session{NewDB: true, Context: ctx})
	conn.Statement.ConnPool = tx
	return conn
}
