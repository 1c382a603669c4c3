// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldToken     = "token"
	FieldMessageID = "message_id"
	FieldUserID    = "user_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Device fields
	FieldDevice     = "device"
	FieldDeviceType = "device_type"
	FieldFinder     = "finder"

	// Stream fields
	FieldOffset    = "offset"
	FieldBlockSize = "block_size"
	FieldSize      = "size"
	FieldRemaining = "remaining_pct"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
