package testutil

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const rivalCallback = "testutil:rival_insert"

// InsertBeforeNextCreate inserts rival inside the transaction of the next
// INSERT into table, right before that statement runs. It stands in for a
// concurrent request that commits between a uniqueness check and the write.
func InsertBeforeNextCreate(t *testing.T, db *gorm.DB, table string, rival interface{}) {
	t.Helper()
	create := db.Callback().Create()
	if err := create.Before("gorm:create").Register(rivalCallback, rivalInsert(t, table, rival)); err != nil {
		t.Fatalf("Failed to register create callback: %v", err)
	}
	t.Cleanup(func() { _ = create.Remove(rivalCallback) })
}

// InsertBeforeNextUpdate is InsertBeforeNextCreate for the next UPDATE of table.
func InsertBeforeNextUpdate(t *testing.T, db *gorm.DB, table string, rival interface{}) {
	t.Helper()
	update := db.Callback().Update()
	if err := update.Before("gorm:update").Register(rivalCallback, rivalInsert(t, table, rival)); err != nil {
		t.Fatalf("Failed to register update callback: %v", err)
	}
	t.Cleanup(func() { _ = update.Remove(rivalCallback) })
}

func rivalInsert(t *testing.T, table string, rival interface{}) func(*gorm.DB) {
	fired := false
	return func(tx *gorm.DB) {
		if fired || tx.Error != nil || tx.Statement.Table != table {
			return
		}
		fired = true
		// NewDB keeps the statement's connection, which is the open transaction.
		err := tx.Session(&gorm.Session{NewDB: true, SkipDefaultTransaction: true}).
			Omit(clause.Associations).
			Create(rival).Error
		if err != nil {
			t.Errorf("Failed to insert rival row into %s: %v", table, err)
		}
	}
}
