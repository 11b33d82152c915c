package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Lifecycle errors
	ErrRestartReturned   ErrorCode = "restart_returned"
	ErrDeepSleepReturned ErrorCode = "deep_sleep_returned"
	ErrSaveState         ErrorCode = "save_state_failed"
	ErrLoadState         ErrorCode = "load_state_failed"

	// Session errors
	ErrConnect    ErrorCode = "connect_failed"
	ErrPublish    ErrorCode = "publish_failed"
	ErrSubscribe  ErrorCode = "subscribe_failed"
	ErrDisconnect ErrorCode = "disconnect_failed"

	// Battery errors
	ErrReadBattery ErrorCode = "read_battery_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrUnavailable:       "Service unavailable",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read config file",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrRestartReturned:   "Restart primitive returned without resetting",
	ErrDeepSleepReturned: "Deep sleep primitive returned without resetting",
	ErrSaveState:         "Failed to save retained state",
	ErrLoadState:         "Failed to load retained state",
	ErrConnect:           "Failed to connect to broker",
	ErrPublish:           "Failed to publish message",
	ErrSubscribe:         "Failed to subscribe",
	ErrDisconnect:        "Failed to disconnect from broker",
	ErrReadBattery:       "Failed to read battery level",
	ErrOperationFailed:   "Operation failed",
	ErrTimeout:           "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
