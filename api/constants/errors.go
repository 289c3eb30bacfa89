package constants

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrMissingUserID    = "user_id is required in the request"
	ErrInvalidSession   = "Your session has expired or is invalid. Please login again"
	ErrMethodNotAllowed = "Method Not Allowed"
)

// ============================================================================
// UPLOAD PIPELINE ERRORS
// ============================================================================

const (
	ErrFailedToParseForm   = "Unable to read the uploaded form: "
	ErrNoFileUploaded      = "No file uploaded. Please attach a workbook using the 'file' field"
	ErrMissingJobID        = "job_id is required so upload progress can be tracked"
	ErrUnsupportedFileType = "Unsupported file type. Please upload an .xlsx or .xls workbook"
	ErrWorkbookOpenFailed  = "The workbook could not be opened. Please verify the file is a valid spreadsheet"
	ErrMissingSheets       = "The workbook is missing required sheets: %s"
	ErrNoDateColumns       = "No date columns (e.g. Jan/25) were found in any required sheet"
)

// ============================================================================
// FINALIZE / COMMIT ERRORS
// ============================================================================

const (
	ErrStagingNotFound      = "Staged upload not found. It may have been finalized or cleaned up already. Please upload again"
	ErrMissingTeamName      = "team_name is required to finalize an upload"
	ErrTxBeginFailed        = "failed to start transaction: "
	ErrCommitFailed         = "commit failed: "
	ErrVersionComputeFailed = "failed to compute next version: "
)

// ============================================================================
// GENERIC DB / SERVER ERRORS
// ============================================================================

const (
	ErrInternalServer = "Something went wrong on our side. Please try again"
	ErrDBConnection   = "Database connection unavailable"
	ErrInvalidJSON    = "Invalid JSON"
	ErrQueryFailed    = "query failed: "
)
