package log

// Common field names for structured logging.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldMonth        = "month"
	FieldYear         = "year"
	FieldExpenseID    = "expense_id"
	FieldCategory     = "category"
	FieldAmount       = "amount"
	FieldBudgetAmount = "budget_amount"
	FieldSpentAmount  = "spent_amount"
	FieldAlertStatus  = "alert_status"
	FieldRecipient    = "recipient"
	FieldMessageSID   = "message_sid"
	FieldEventType    = "event_type"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAlerts  = "alerts"
	ComponentNotify  = "notify"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)
