package constants

// InvoiceStatus is the canonical lifecycle status for rows in invoices.
type InvoiceStatus string

// Stable values (store these exact strings in DB).
const (
	InvoiceStatusUploaded   InvoiceStatus = "uploaded"   // file stored, ingestion not started
	InvoiceStatusProcessing InvoiceStatus = "processing" // ingestion in progress
	InvoiceStatusCompleted  InvoiceStatus = "completed"  // structured record persisted
	InvoiceStatusFailed     InvoiceStatus = "failed"     // terminal failure
)

// RunStatus is the canonical status for compliance runs.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Severity classifies how serious a compliance violation is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CheckKind classifies what a rule inspects.
type CheckKind string

const (
	CheckKindPresence    CheckKind = "presence"
	CheckKindFormat      CheckKind = "format"
	CheckKindCalculation CheckKind = "calculation"
)

// UserRole distinguishes regular users from admins (audit log access).
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)
