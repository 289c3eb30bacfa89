package upload

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DropStaging removes the staged artifact. It runs on both the success path
// (after finalize) and every failure path; failures here are logged and
// swallowed so a broken cleanup never masks the error actually being
// reported to the client.
func DropStaging(ctx context.Context, pool *pgxpool.Pool, table string) {
	if table == "" {
		return
	}
	if !IsStagingTableName(table) {
		log.Printf("[Cleanup] refusing to drop non-staging table %q", table)
		return
	}
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()); err != nil {
		log.Printf("[Cleanup] failed to drop staging table %s: %v", table, err)
		return
	}
	log.Printf("[Cleanup] dropped staging table %s", table)
}
