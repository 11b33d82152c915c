package rtcstore

import "github.com/witsoft001/esp8266-smart-home/internal/errors"

const (
	// Configuration Errors
	ErrInvalidDBPath = errors.ErrorCode("rtcstore_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("rtcstore_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("rtcstore_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("rtcstore_schema_migration_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed
	ErrSave         = errors.ErrSaveState
	ErrLoad         = errors.ErrLoadState
	ErrInvalidState = errors.ErrorCode("rtcstore_invalid_state")
)
