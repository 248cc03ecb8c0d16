package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - CSV file not found
//	FILE002 - CSV file could not be read (permissions, I/O)
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Malformed CSV (no header row, conflicting address columns)
//	VAL004 - Required column missing from the header row
//
// # Database Errors (DB001-DB099)
//
//	DB001-DB003 - Constraint violations (duplicate key, unique, foreign key)
//	DB004-DB007 - Connectivity problems (refused, reset, timeout, deadlock)
//	DB010       - Load failed; nothing was imported
//	DB011       - Age distribution could not be computed
//
// # Request Errors (UPL004-UPL005)
//
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Default (ERR000)
//
//	ERR000 - Unexpected error; the technical error is in the server log
//
// Typed pipeline errors are resolved first. The cause of a LoadError or
// AggregateError is then matched against errorPatterns so a more specific
// database message wins over the generic DB010/DB011. Patterns are matched
// case-insensitively with strings.Contains; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgFileNotFound = UserMessage{
		Message: "The CSV file was not found",
		Action:  "Check that CSV_FILE_PATH points to an existing file",
		Code:    "FILE001",
	}
	msgFileUnreadable = UserMessage{
		Message: "The CSV file could not be read",
		Action:  "Check the file permissions and try again",
		Code:    "FILE002",
	}
	msgMalformedCSV = UserMessage{
		Message: "The CSV file is malformed",
		Action:  "Ensure the first line is a comma-separated header row",
		Code:    "VAL001",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that all required columns are present in your file",
		Code:    "VAL004",
	}
	msgLoadFailed = UserMessage{
		Message: "The import failed and no rows were saved",
		Action:  "Fix the reported row and run the import again",
		Code:    "DB010",
	}
	msgAggregateFailed = UserMessage{
		Message: "The age distribution could not be computed",
		Action:  "Please try again in a few moments",
		Code:    "DB011",
	}
)

// errorPatterns is checked in order, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove duplicate rows from the file",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure parent records exist first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&FileReadError{Path: "users.csv", Err: fs.ErrNotExist})
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var fileErr *FileReadError
	if errors.As(err, &fileErr) {
		if fileErr.NotFound() {
			return msgFileNotFound
		}
		return msgFileUnreadable
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if strings.Contains(parseErr.Msg, "missing required column") {
			return msgMissingColumn
		}
		return msgMalformedCSV
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return msgLoadFailed
	}

	var aggErr *AggregateError
	if errors.As(err, &aggErr) {
		return msgAggregateFailed
	}

	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError renders MapError(err) as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
