package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldRunID is the standardized structured logging key for scheduler run identifiers.
	FieldRunID = "run_id"
	// FieldDate is the standardized structured logging key for the target calendar date.
	FieldDate = "date"
	// FieldOutcome is the standardized structured logging key for run outcomes.
	FieldOutcome = "outcome"
	// FieldCamera is the standardized structured logging key for camera names.
	FieldCamera = "camera"
)
