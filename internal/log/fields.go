package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldEvent       = "event"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldOperationID = "operation_id"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldKey         = "key"
	FieldBackend     = "backend"
	FieldBytes       = "bytes"
	FieldCount       = "count"
	FieldFile        = "file"
	FieldAttempt     = "attempt"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentReport    = "report"
	ComponentExchange  = "exchange"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpImport   = "import"
	OpExport   = "export"
	OpBackup   = "backup"
	OpPersist  = "persist"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text. A nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithLedgerOperation adds the identifying fields of a ledger operation.
func (f LogFields) WithLedgerOperation(id, date, kind, category string, amount float64) LogFields {
	f[FieldOperationID] = id
	f[FieldDate] = date
	f[FieldKind] = kind
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
