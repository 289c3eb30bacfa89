package upload

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/api/constants"
	"ConsolidaFin/internal/config"
)

var businessStagingCols = []string{"cod", "itens_periodo", "segmentos", "file_paths", "sheet_name"}

var jobSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// StagingTableName derives the job-scoped, timestamp-qualified staging table
// name. Scoping by job id keeps concurrent uploads from clobbering each
// other's staging table; the timestamp suffix keeps a re-used job id from
// colliding with its own earlier run.
func StagingTableName(jobID string, now time.Time) string {
	slug := jobSlugRe.ReplaceAllString(strings.ToLower(jobID), "")
	if len(slug) > 24 {
		slug = slug[:24]
	}
	if slug == "" {
		slug = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	return fmt.Sprintf("%s%s_%d", config.StagingTablePrefix, slug, now.Unix())
}

var stagingNameRe = regexp.MustCompile(`^` + config.StagingTablePrefix + `[a-z0-9]+_[0-9]+$`)

// IsStagingTableName reports whether name is a table this pipeline created.
// Everything that touches a client-supplied table name goes through this
// before the name reaches a query.
func IsStagingTableName(name string) bool {
	return stagingNameRe.MatchString(name)
}

// StagingTableCreatedAt recovers the creation timestamp embedded in a
// staging table name.
func StagingTableCreatedAt(name string) (time.Time, bool) {
	if !IsStagingTableName(name) {
		return time.Time{}, false
	}
	idx := strings.LastIndex(name, "_")
	ts, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// StagingWriter streams validated rows into the per-job staging table and
// advances job progress through the staging band as it goes.
type StagingWriter struct {
	pool        *pgxpool.Pool
	jobs        JobStore
	jobID       string
	Table       string
	dateHeaders []string
	Invalid     int
}

func NewStagingWriter(pool *pgxpool.Pool, jobs JobStore, jobID string, dateHeaders []string) *StagingWriter {
	return &StagingWriter{
		pool:        pool,
		jobs:        jobs,
		jobID:       jobID,
		Table:       StagingTableName(jobID, time.Now()),
		dateHeaders: dateHeaders,
	}
}

// CreateTable creates the staging table: the five business columns plus one
// double precision column per unioned date header. Identifiers are escaped
// programmatically; a maliciously named column header never reaches SQL
// unquoted.
func (w *StagingWriter) CreateTable(ctx context.Context) error {
	cols := []string{
		"cod bigint",
		"itens_periodo text",
		"segmentos text",
		"file_paths text",
		"sheet_name text",
	}
	for _, h := range w.dateHeaders {
		cols = append(cols, pgx.Identifier{h}.Sanitize()+" double precision")
	}
	sql := fmt.Sprintf("CREATE TABLE %s (%s)", pgx.Identifier{w.Table}.Sanitize(), strings.Join(cols, ", "))
	_, err := w.pool.Exec(ctx, sql)
	return err
}

func (w *StagingWriter) columns() []string {
	cols := append([]string{}, businessStagingCols...)
	return append(cols, w.dateHeaders...)
}

func (w *StagingWriter) rowValues(row StagedRow) []interface{} {
	vals := []interface{}{row.Cod, row.ItensPeriodo, row.Segmentos, row.FilePaths, row.SheetName}
	for _, h := range w.dateHeaders {
		// columns the row's sheet never had are zero-filled
		vals = append(vals, row.Values[h])
	}
	return vals
}

// WriteRows bulk-appends staged rows in chunks. Each chunk goes through
// CopyFrom; a failed chunk falls back to row-at-a-time inserts so a single
// bad row costs one invalid count, not the batch. Progress advances inside
// the staging band after every chunk.
func (w *StagingWriter) WriteRows(ctx context.Context, rows []StagedRow) (int, error) {
	total := len(rows)
	appended := 0
	cols := w.columns()

	for offset := 0; offset < total; offset += config.StagingChunkSize {
		end := offset + config.StagingChunkSize
		if end > total {
			end = total
		}
		chunk := rows[offset:end]

		values := make([][]interface{}, len(chunk))
		for i, row := range chunk {
			values[i] = w.rowValues(row)
		}

		n, err := w.pool.CopyFrom(ctx, pgx.Identifier{w.Table}, cols, pgx.CopyFromRows(values))
		if err != nil {
			log.Printf("[StagingWriter] CopyFrom chunk failed for %s, retrying row by row: %v", w.Table, err)
			n = w.insertChunkRowByRow(ctx, cols, values)
		}
		appended += int(n)

		w.jobs.Set(w.jobID, stagingProgress(end, total), constants.StatusProcessing, "", "")
	}
	return appended, nil
}

// insertChunkRowByRow is the soft-failure path: append-mechanism errors are
// operational noise, counted and reported, never fatal.
func (w *StagingWriter) insertChunkRowByRow(ctx context.Context, cols []string, values [][]interface{}) int64 {
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{w.Table}.Sanitize(), strings.Join(quoted, ", "), strings.Join(params, ", "))

	var inserted int64
	for _, vals := range values {
		if _, err := w.pool.Exec(ctx, sql, vals...); err != nil {
			w.Invalid++
			log.Printf("[StagingWriter] row append failed for %s (invalid count %d): %v", w.Table, w.Invalid, err)
			continue
		}
		inserted++
	}
	return inserted
}

// stagingProgress maps done/total onto the reserved staging band.
func stagingProgress(done, total int) int {
	if total <= 0 {
		return config.ProgressStagingEnd
	}
	span := config.ProgressStagingEnd - config.ProgressStagingStart
	return config.ProgressStagingStart + span*done/total
}
