package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldExpenseID  = "expense_id"
	FieldCategory   = "category"
	FieldCurrency   = "currency"
	FieldAmount     = "amount"
	FieldBaseAmount = "base_amount"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDays       = "days"
	FieldMonths     = "months"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentExpense   = "expense"
	ComponentStore     = "store"
	ComponentAnalytics = "analytics"
	ComponentForecast  = "forecast"
	ComponentCurrency  = "currency"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackup    = "backup"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAppend   = "append"
	OpSync     = "sync"
	OpConvert  = "convert"
	OpForecast = "forecast"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
