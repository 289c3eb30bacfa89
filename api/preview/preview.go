package preview

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/api"
	"ConsolidaFin/api/constants"
)

// PreviewRow is one committed row as served to the browsing UI.
type PreviewRow struct {
	Cod          int64   `json:"cod"`
	ItensPeriodo string  `json:"itens_periodo"`
	Segmentos    string  `json:"segmentos"`
	FilePaths    string  `json:"file_paths"`
	SheetName    string  `json:"sheet_name"`
	TeamName     string  `json:"team_name"`
	DatRef       string  `json:"dat_ref"`
	Value        float64 `json:"value"`
	Version      int     `json:"version"`
	UpdatedAt    string  `json:"updated_at"`
}

// GetPreviewDataHandler serves committed rows filtered by team and version.
// When version is omitted the team's latest version is returned. Versions
// are complete once visible, so no temporal filtering happens here.
func GetPreviewDataHandler(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req struct {
			TeamName string `json:"team_name"`
			Version  *int   `json:"version"`
			Limit    int    `json:"limit"`
			Offset   int    `json:"offset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if strings.TrimSpace(req.TeamName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingTeamName)
			return
		}
		if req.Limit <= 0 || req.Limit > 1000 {
			req.Limit = 500
		}

		ctx := r.Context()
		version := 0
		if req.Version != nil {
			version = *req.Version
		} else {
			err := pool.QueryRow(ctx,
				`SELECT COALESCE(MAX(version), 0) FROM preview WHERE team_name = $1`,
				req.TeamName).Scan(&version)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
		}

		rows, err := pool.Query(ctx, `
			SELECT cod, itens_periodo, segmentos, file_paths, sheet_name, team_name,
			       dat_ref, value, version, updated_at
			FROM preview
			WHERE team_name = $1 AND version = $2
			ORDER BY cod, segmentos, dat_ref
			LIMIT $3 OFFSET $4`,
			req.TeamName, version, req.Limit, req.Offset)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		out := make([]PreviewRow, 0, req.Limit)
		for rows.Next() {
			var (
				row       PreviewRow
				datRef    time.Time
				updatedAt time.Time
			)
			if err := rows.Scan(&row.Cod, &row.ItensPeriodo, &row.Segmentos, &row.FilePaths,
				&row.SheetName, &row.TeamName, &datRef, &row.Value, &row.Version, &updatedAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			row.DatRef = datRef.Format(constants.DateFormat)
			row.UpdatedAt = updatedAt.Format(constants.DateTimeFormat)
			out = append(out, row)
		}
		if err := rows.Err(); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}

		api.RespondWithPayload(w, map[string]interface{}{
			constants.KeyTeamName: req.TeamName,
			"version":             version,
			"rows":                out,
		})
	})
}

// GetPreviewVersionsHandler lists the committed version layers for a team.
func GetPreviewVersionsHandler(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req struct {
			TeamName string `json:"team_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if strings.TrimSpace(req.TeamName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingTeamName)
			return
		}

		rows, err := pool.Query(r.Context(), `
			SELECT version, COUNT(*), MAX(updated_at)
			FROM preview
			WHERE team_name = $1
			GROUP BY version
			ORDER BY version`,
			req.TeamName)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		versions := make([]map[string]interface{}, 0)
		for rows.Next() {
			var (
				version   int
				count     int64
				updatedAt time.Time
			)
			if err := rows.Scan(&version, &count, &updatedAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			versions = append(versions, map[string]interface{}{
				"version":    version,
				"row_count":  count,
				"updated_at": updatedAt.Format(constants.DateTimeFormat),
			})
		}
		if err := rows.Err(); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}

		api.RespondWithPayload(w, map[string]interface{}{
			constants.KeyTeamName: req.TeamName,
			"versions":            versions,
		})
	})
}

// StartPreviewService serves the read side of the versioned store.
func StartPreviewService(pool *pgxpool.Pool, port int) {
	sessionRequired := api.SessionMiddleware()

	mux := http.NewServeMux()
	mux.HandleFunc("/preview/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Preview Service is active"))
	})
	mux.Handle("/preview/data", sessionRequired(GetPreviewDataHandler(pool)))
	mux.Handle("/preview/versions", sessionRequired(GetPreviewVersionsHandler(pool)))

	addr := fmt.Sprintf(":%d", port)
	log.Println("Preview Service started on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Preview Service failed: %v", err)
	}
}
