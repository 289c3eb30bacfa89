package upload

import (
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"ConsolidaFin/api"
)

// StartUploadService registers the pipeline routes and serves them on the
// given port. Spreadsheet upload and finalize require an active session;
// the progress poll is left open so a client can keep polling across a
// session refresh.
func StartUploadService(pool *pgxpool.Pool, jobs JobStore, port int) {
	sessionRequired := api.SessionMiddleware()

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Upload Service is active"))
	})
	mux.Handle("/upload/spreadsheet", sessionRequired(UploadSpreadsheetHandler(pool, jobs)))
	mux.Handle("/upload/progress", UploadProgressHandler(jobs))
	mux.Handle("/upload/finalize", sessionRequired(FinalizeUploadHandler(pool)))

	addr := fmt.Sprintf(":%d", port)
	log.Println("Upload Service started on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Upload Service failed: %v", err)
	}
}
