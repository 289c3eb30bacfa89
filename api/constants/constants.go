package constants

// Form / JSON keys
const (
	KeyUserID       = "user_id"
	KeyJobID        = "job_id"
	KeyTeamName     = "team_name"
	KeyStagingTable = "staging_table"
	ValueSuccess    = "success"
	ValueError      = "error"
)

// Content Types
const (
	ContentTypeText      = "Content-Type"
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

// Date formats
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"
)

// Job statuses reported by the progress registry
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Error severities carried by pipeline errors
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Workbook layout: the four required sheets. RESULTADO, CONTABIL and
// FICTICIO participate in the balance check; GERENCIAL is staged and
// committed but excluded from it.
const (
	SheetResultado = "RESULTADO"
	SheetContabil  = "CONTABIL"
	SheetFicticio  = "FICTICIO"
	SheetGerencial = "GERENCIAL"
)

// RequiredSheets lists every sheet a workbook must contain, in the order
// missing-sheet errors report them.
var RequiredSheets = []string{SheetResultado, SheetContabil, SheetFicticio, SheetGerencial}

// Business column headers, matched exactly against the header row.
const (
	HeaderCod          = "Cod"
	HeaderItensPeriodo = "ItensPeriodo"
	HeaderSegmentos    = "Segmentos"
	HeaderFilePaths    = "FilePaths"
)

// Segments is the fixed enumeration accepted in the Segmentos column.
var Segments = []string{
	"Empresas I",
	"Empresas II",
	"Empresas III",
	"Varejo",
	"Corporate",
	"Private",
}
