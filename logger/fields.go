package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across chrono.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"

	// Files and paths
	FieldPath = "path"
	FieldLine = "line"

	// Chronology-specific
	FieldChronology = "chronology" // Chronology name
	FieldCalendar   = "calendar"   // Calendar name
	FieldFrom       = "from"       // Source calendar in a relabel
	FieldTo         = "to"         // Target calendar in a relabel
	FieldCategory   = "category"   // EVENTS, PERIODS, ...
	FieldRecord     = "record"     // Record name within a category
	FieldDate       = "date"       // Raw dated string
	FieldVersion    = "version"    // Chronology semantic version
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Store struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewStore(db *sql.DB) *Store {
//	    return &Store{db: db, logger: logger.ComponentLogger("index")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChronologyLogger returns a component logger pre-populated with the
// chronology name and calendar.
func ChronologyLogger(component, chronology, calendar string) *zap.SugaredLogger {
	return ComponentLogger(component).With(FieldChronology, chronology, FieldCalendar, calendar)
}
