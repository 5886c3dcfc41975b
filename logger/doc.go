// Package logger wraps zerolog with map-based fields and component scoping.
//
//	logging:
//	  level: debug
//	  format: json
//
// Code that is not handed a logger looks one up by component name:
//
//	log := logger.Get("provider")
//	log.Info("cache hit", logger.Fields(logger.FieldStage, "identification", "end", 60.0))
package logger
