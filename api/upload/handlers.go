package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/api"
	"ConsolidaFin/api/constants"
	"ConsolidaFin/internal/config"
)

// respondPipelineError writes the structured failure contract:
// {success:false, error, severity, details?, context?}.
func respondPipelineError(w http.ResponseWriter, status int, perr *PipelineError) {
	log.Printf("[Upload][%s] %s", perr.Severity, perr.Error())
	resp := map[string]interface{}{
		"success":  false,
		"error":    perr.Message,
		"severity": perr.Severity,
	}
	if perr.Details != "" {
		resp["details"] = perr.Details
	}
	if perr.Context != nil {
		resp["context"] = perr.Context
	}
	api.RespondWithJSON(w, status, resp)
}

// UploadSpreadsheetHandler runs the whole ingestion pipeline for one
// workbook: parse, validate, stage, balance-check. On success the response
// carries the staging table name the client must later pass to finalize.
// Progress for the supplied job_id is readable throughout via the progress
// endpoint.
func UploadSpreadsheetHandler(pool *pgxpool.Pool, jobs JobStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[UploadSpreadsheet] Start %s %s", r.Method, r.URL.Path)
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[UploadSpreadsheet] Panic recovered: %v", rec)
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrInternalServer)
			}
			log.Printf("[UploadSpreadsheet] Finished in %s", time.Since(start))
		}()

		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(config.UploadMaxMemory); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFailedToParseForm+err.Error())
			return
		}

		jobID := strings.TrimSpace(r.FormValue(constants.KeyJobID))
		if jobID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingJobID)
			return
		}

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
			return
		}
		fh := files[0]
		file, err := fh.Open()
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrWorkbookOpenFailed+": "+err.Error())
			return
		}
		defer file.Close()

		ctx := r.Context()
		writer, rowCount, perr := runPipeline(ctx, pool, jobs, jobID, file, fh.Filename)
		if perr != nil {
			if writer != nil {
				DropStaging(context.Background(), pool, writer.Table)
			}
			markError(jobs, jobID, perr)
			respondPipelineError(w, http.StatusBadRequest, perr)
			return
		}

		jobs.Set(jobID, 100, constants.StatusDone, "", "")
		api.RespondWithPayload(w, map[string]interface{}{
			"staging_table": writer.Table,
			"rows":          rowCount,
			"invalid_rows":  writer.Invalid,
		})
		log.Printf("[UploadSpreadsheet] Staged %d rows (%d invalid) into %s for job %s",
			rowCount, writer.Invalid, writer.Table, jobID)
	})
}

// runPipeline is the upload control flow: parse and classify sheets, union
// the date columns, validate rows, stage them, then run the cross-sheet
// balance check. Any critical error aborts immediately; the caller owns
// cleanup of whatever staging state exists.
func runPipeline(ctx context.Context, pool *pgxpool.Pool, jobs JobStore, jobID string, file multipart.File, filename string) (*StagingWriter, int, *PipelineError) {
	jobs.Set(jobID, 2, constants.StatusProcessing, "", "")

	sheets, perr := readWorkbook(file, filename)
	if perr != nil {
		return nil, 0, perr
	}
	if missing := missingSheets(sheets); len(missing) > 0 {
		return nil, 0, Critical(
			fmt.Sprintf(constants.ErrMissingSheets, strings.Join(missing, ", ")),
			"",
			map[string]interface{}{"missing_sheets": missing},
		)
	}
	jobs.Set(jobID, 8, constants.StatusProcessing, "", "")

	layouts := make(map[string]sheetLayout, len(sheets))
	for name, rows := range sheets {
		if len(rows) == 0 {
			return nil, 0, Critical("Sheet "+name+" has no header row", "", map[string]interface{}{"sheet": name})
		}
		layout := parseHeaderRow(rows[0])
		if missing := layout.missingBusinessHeaders(); len(missing) > 0 {
			return nil, 0, Critical(
				"Sheet "+name+" is missing required columns: "+strings.Join(missing, ", "),
				"",
				map[string]interface{}{"sheet": name, "missing_columns": missing},
			)
		}
		layouts[name] = layout
	}

	dateHeaders := unionDateHeaders(layouts)
	if len(dateHeaders) == 0 {
		return nil, 0, Critical(constants.ErrNoDateColumns, "", nil)
	}
	jobs.Set(jobID, 12, constants.StatusProcessing, "", "")

	var staged []StagedRow
	for name, rows := range sheets {
		sheetRows, perr := validateSheetRows(name, rows, layouts[name])
		if perr != nil {
			return nil, 0, perr
		}
		staged = append(staged, sheetRows...)
	}
	jobs.Set(jobID, config.ProgressStagingStart, constants.StatusProcessing, "", "")

	writer := NewStagingWriter(pool, jobs, jobID, dateHeaders)
	if err := writer.CreateTable(ctx); err != nil {
		return writer, 0, Critical(constants.ErrInternalServer, "failed to create staging table: "+err.Error(), nil)
	}
	appended, err := writer.WriteRows(ctx, staged)
	if err != nil {
		return writer, 0, Critical(constants.ErrInternalServer, "staging write failed: "+err.Error(), nil)
	}
	jobs.Set(jobID, config.ProgressStagingEnd, constants.StatusProcessing, "", "")

	if perr := CheckBalance(ctx, pool, writer.Table, dateHeaders); perr != nil {
		return writer, 0, perr
	}
	jobs.Set(jobID, 95, constants.StatusProcessing, "", "")

	return writer, appended, nil
}

// UploadProgressHandler serves the polling contract. job_id arrives as a
// query parameter or a JSON body; unknown jobs read as processing/0.
func UploadProgressHandler(jobs JobStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get(constants.KeyJobID)
		if jobID == "" && r.Method == http.MethodPost {
			var req struct {
				JobID string `json:"job_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				jobID = req.JobID
			}
		}
		if jobID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingJobID)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, jobs.Get(jobID))
	})
}

// FinalizeUploadHandler commits a staged artifact under the next version
// for the requested team, then cleans the staging state up whatever the
// outcome.
func FinalizeUploadHandler(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[FinalizeUpload] Start %s %s", r.Method, r.URL.Path)
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[FinalizeUpload] Panic recovered: %v", rec)
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrInternalServer)
			}
			log.Printf("[FinalizeUpload] Finished in %s", time.Since(start))
		}()

		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}

		var req struct {
			StagingTable string `json:"staging_table"`
			TeamName     string `json:"team_name"`
			UserID       string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if strings.TrimSpace(req.TeamName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingTeamName)
			return
		}

		ctx := r.Context()
		version, perr := FinalizeUpload(ctx, pool, req.StagingTable, req.TeamName)
		if perr != nil {
			status := http.StatusBadRequest
			if code, _ := perr.Context["code"].(string); code == "staging_not_found" {
				status = http.StatusNotFound
			} else {
				// staged state is discarded on any fatal finalize error so
				// the client's retry starts from a clean upload
				DropStaging(context.Background(), pool, req.StagingTable)
			}
			respondPipelineError(w, status, perr)
			return
		}

		DropStaging(context.Background(), pool, req.StagingTable)
		api.RespondWithPayload(w, map[string]interface{}{
			constants.KeyTeamName: req.TeamName,
			"version":             version,
		})
		log.Printf("[FinalizeUpload] Committed version %d for team %s from %s", version, req.TeamName, req.StagingTable)
	})
}
