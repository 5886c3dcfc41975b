package logger

// Field keys shared across packages.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldRunID     = "run_id"
	FieldSourceID  = "source_id"
	FieldStage     = "stage"
	FieldStrategy  = "strategy"
	FieldCacheKey  = "cache_key"
	FieldUnit      = "unit"
	FieldReason    = "reason"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing key without a value are dropped.
//
//	log.Info("cache hit", logger.Fields(logger.FieldStage, "diarization", "end", 60.0))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 1; i < len(kvs); i += 2 {
		if key, ok := kvs[i-1].(string); ok {
			m[key] = kvs[i]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}
