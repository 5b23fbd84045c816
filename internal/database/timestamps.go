package database

import (
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// registerUTCTimestamps converts every time.Time field to UTC before it is
// written. sqlite stores timestamps as text, so range queries on them only
// compare correctly when all rows share one zone.
func registerUTCTimestamps(conn *gorm.DB) error {
	if err := conn.Callback().Create().Before("gorm:create").Register("deliverydesk:utc_timestamps", normalizeTimestamps); err != nil {
		return fmt.Errorf("failed to register create callback: %w", err)
	}
	if err := conn.Callback().Update().Before("gorm:update").Register("deliverydesk:utc_timestamps", normalizeTimestamps); err != nil {
		return fmt.Errorf("failed to register update callback: %w", err)
	}
	return nil
}

func normalizeTimestamps(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Schema == nil || !stmt.ReflectValue.IsValid() {
		return
	}

	switch stmt.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < stmt.ReflectValue.Len(); i++ {
			normalizeRow(db, stmt.Schema, reflect.Indirect(stmt.ReflectValue.Index(i)))
		}
	case reflect.Struct:
		normalizeRow(db, stmt.Schema, stmt.ReflectValue)
	}
}

func normalizeRow(db *gorm.DB, s *schema.Schema, row reflect.Value) {
	ctx := db.Statement.Context
	for _, field := range s.Fields {
		value, zero := field.ValueOf(ctx, row)
		if zero {
			continue
		}
		switch v := value.(type) {
		case time.Time:
			if v.Location() != time.UTC {
				db.AddError(field.Set(ctx, row, v.UTC()))
			}
		case *time.Time:
			if v != nil && v.Location() != time.UTC {
				utc := v.UTC()
				db.AddError(field.Set(ctx, row, &utc))
			}
		}
	}
}
