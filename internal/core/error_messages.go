// Package core provides the cleaning logic for transaction CSV data.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Data-quality findings are never errors; everything below is a
// precondition violation or an I/O failure that aborted a run.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid config: The cleaning configuration is invalid
//	         Action: Fix the reported keys in the config file
//	         Patterns: "invalid config"
//
//	CFG002 - Unknown key: The config file contains an unrecognized key
//	         Action: Check the key spelling against the documented keys
//	         Patterns: "not found in type"
//
//	CFG003 - Invalid type: A schema column declares an unknown type
//	         Action: Use string, integer, float, datetime or bool
//	         Patterns: "invalid coercion target"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL004 - Missing column: A column required by a cleaning step is missing
//	         Action: Check that the file contains the transaction columns
//	         Patterns: "missing required column"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	FILE002 - Invalid CSV: File is not a valid delimited file
//	FILE004 - No file: No file was provided
//	FILE005 - Empty file: The file has no header row
//	FILE006 - Unsupported format: The file format is not supported
//
// # Run Errors (RUN001-RUN099)
//
//	RUN002 - System busy: Too many cleaning runs in progress
//	RUN004 - Request cancelled
//	RUN005 - Request timeout
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused: Unable to connect to database
//	DB006 - Timeout: Operation timed out
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Precondition errors. These indicate caller or config defects, not dirty data.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidType   = errors.New("invalid coercion target")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: more specific patterns must precede general ones.
var errorPatterns = []errorPattern{
	// Configuration
	{
		pattern: "invalid coercion target",
		msg: UserMessage{
			Message: "A schema column declares an unknown type",
			Action:  "Use string, integer, float, datetime or bool",
			Code:    "CFG003",
		},
	},
	{
		pattern: "not found in type",
		msg: UserMessage{
			Message: "The config file contains an unrecognized key",
			Action:  "Check the key spelling against the documented keys",
			Code:    "CFG002",
		},
	},
	{
		pattern: "invalid config",
		msg: UserMessage{
			Message: "The cleaning configuration is invalid",
			Action:  "Fix the reported keys in the config file",
			Code:    "CFG001",
		},
	},

	// Validation
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A column required by a cleaning step is missing",
			Action:  "Check that the file contains the transaction columns",
			Code:    "VAL004",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "The file format is not supported",
			Action:  "Upload a delimited text file or an .xlsx workbook",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid delimited file",
			Action:  "Ensure the file uses one delimiter and consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Please attach a CSV file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Provide a file with a header row",
			Code:    "FILE005",
		},
	},

	// Run
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "Too many cleaning runs in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "RUN005",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
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
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "message (code): action" for CLI output.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s): %s", msg.Message, msg.Code, msg.Action)
}
