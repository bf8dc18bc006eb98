package db

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema is the DDL for every table the admin API reads or writes.
//
//go:embed schema.sql
var Schema string

// ApplySchema creates missing tables and indexes.
func ApplySchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("platform/db: apply schema: %w", err)
	}
	return nil
}
