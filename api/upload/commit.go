package upload

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/api/constants"
)

// stagingNotFoundError marks the race where a second finalize (or cleanup)
// already removed the staged artifact. Handlers map it to a distinct
// not-found response rather than a generic failure.
func stagingNotFoundError(table string) *PipelineError {
	return Critical(constants.ErrStagingNotFound, "", map[string]interface{}{
		"code":          "staging_not_found",
		"staging_table": table,
	})
}

// StagingTableExists checks the catalog for the staged artifact.
func StagingTableExists(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = $1)`,
		table).Scan(&exists)
	return exists, err
}

// stagingDateHeaders re-derives the date columns from the staging table's
// own schema. Finalize may be a different request or process than the
// upload, so nothing here depends on in-memory upload state.
func stagingDateHeaders(ctx context.Context, pool *pgxpool.Pool, table string) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1 AND data_type = 'double precision'
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		if IsDateHeader(col) {
			headers = append(headers, col)
		}
	}
	return headers, rows.Err()
}

// FinalizeUpload pivots the staged wide artifact into narrow versioned rows
// and appends them to the permanent preview table as one transaction.
// Version assignment is serialized per team with an advisory lock held for
// the transaction, so concurrent finalizes for the same team cannot claim
// the same version number. Rows whose value is null or exactly zero are
// never committed.
func FinalizeUpload(ctx context.Context, pool *pgxpool.Pool, stagingTable, teamName string) (int, *PipelineError) {
	if !IsStagingTableName(stagingTable) {
		return 0, stagingNotFoundError(stagingTable)
	}
	exists, err := StagingTableExists(ctx, pool, stagingTable)
	if err != nil {
		return 0, Critical(constants.ErrInternalServer, err.Error(), nil)
	}
	if !exists {
		return 0, stagingNotFoundError(stagingTable)
	}

	dateHeaders, err := stagingDateHeaders(ctx, pool, stagingTable)
	if err != nil {
		return 0, Critical(constants.ErrInternalServer, "failed to read staging schema: "+err.Error(), nil)
	}
	if len(dateHeaders) == 0 {
		return 0, Critical(constants.ErrNoDateColumns, "", map[string]interface{}{
			"staging_table": stagingTable,
		})
	}

	// An imbalanced artifact must never reach the permanent store, no
	// matter how it was staged.
	if perr := CheckBalance(ctx, pool, stagingTable, dateHeaders); perr != nil {
		return 0, perr
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, Critical(constants.ErrInternalServer, constants.ErrTxBeginFailed+err.Error(), nil)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, teamName); err != nil {
		return 0, Critical(constants.ErrInternalServer, "failed to acquire team lock: "+err.Error(), nil)
	}

	var version int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM preview WHERE team_name = $1`,
		teamName).Scan(&version)
	if err != nil {
		return 0, Critical(constants.ErrInternalServer, constants.ErrVersionComputeFailed+err.Error(), nil)
	}

	for _, header := range dateHeaders {
		datRef, derr := ParseDateHeader(header)
		if derr != nil {
			return 0, Critical(constants.ErrInternalServer, derr.Error(), map[string]interface{}{
				"column": header,
			})
		}
		col := pgx.Identifier{header}.Sanitize()
		sql := fmt.Sprintf(`
			INSERT INTO preview
				(cod, itens_periodo, segmentos, file_paths, sheet_name, team_name, dat_ref, value, version, updated_at)
			SELECT cod, itens_periodo, segmentos, file_paths, sheet_name, $1, $2::date, %[1]s, $3, now()
			FROM %[2]s
			WHERE %[1]s IS NOT NULL AND %[1]s <> 0`,
			col, pgx.Identifier{stagingTable}.Sanitize())
		if _, err := tx.Exec(ctx, sql, teamName, datRef.Format(constants.DateFormat), version); err != nil {
			return 0, Critical(constants.ErrInternalServer, constants.ErrCommitFailed+err.Error(), map[string]interface{}{
				"column": header,
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, Critical(constants.ErrInternalServer, constants.ErrCommitFailed+err.Error(), nil)
	}
	return version, nil
}
