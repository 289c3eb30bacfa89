package config

const (
	DefaultTimeZone = "America/Sao_Paulo"

	// Staging Writer Constants
	StagingTablePrefix = "staging_upload_"
	StagingChunkSize   = 100
	UploadMaxMemory    = 32 << 20

	// Progress band reserved for the staging phase. Parsing and validation
	// happen below ProgressStagingStart; the balance check and the final
	// response happen above ProgressStagingEnd.
	ProgressStagingStart = 20
	ProgressStagingEnd   = 90

	// Balance Validator Constants
	BalanceTolerance = "0.01"

	// Housekeeping Constants
	DefaultReaperSchedule = "0 * * * *" // hourly sweep for orphaned staging tables
	DefaultStagingTTLHrs  = 12
)
