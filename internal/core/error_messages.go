package core

// error_messages.go maps technical errors to user messages with a code
// users can quote when asking for help.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload exceeds the configured size limit
//	FILE002 - Unsupported type: the extension is not .csv, .xlsx, .xls or .ods
//	FILE003 - Unreadable file: the bytes are not a valid file of that type
//	FILE004 - No file: nothing was uploaded
//	FILE005 - Too few rows: the file needs a header row and one data row
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - No candidates: no row had a name, email and recognised course
//	VAL002 - Missing columns: Name, Email or Courses column not found
//	VAL003 - Invalid entry: a manual entry or preview request is incomplete
//
// # Batch Errors (BAT001-BAT099)
//
//	BAT001 - Batch running: a run is already in progress
//	BAT002 - Nothing to process: the batch is empty or was never run
//	BAT003 - Unknown candidate: the candidate is not in the current batch
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Access Errors (AUTH001-AUTH099)
//
//	AUTH001 - Wrong password
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones. Anything that
// matches nothing is ERR000; check the server log for the technical error.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgUnreadable = UserMessage{
		Message: "The file could not be read",
		Action:  "Check the file opens in a spreadsheet program and save it again",
		Code:    "FILE003",
	}
	msgNothingToProcess = UserMessage{
		Message: "There is nothing to process",
		Action:  "Upload a candidate file first",
		Code:    "BAT002",
	}
	msgInvalidEntry = UserMessage{
		Message: "Some details are missing or invalid",
		Action:  "Enter a name, a valid email address and choose a course",
		Code:    "VAL003",
	}
)

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the candidate list into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "sheet too large",
		msg: UserMessage{
			Message: "The spreadsheet has too many rows or columns",
			Action:  "Remove unused rows and columns or split the candidate list",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv, .xlsx, .xls or .ods file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "header row and at least one data row",
		msg: UserMessage{
			Message: "The file has no candidate rows",
			Action:  "Add a header row followed by at least one candidate",
			Code:    "FILE005",
		},
	},
	{pattern: "not a valid spreadsheet", msg: msgUnreadable},
	{pattern: "has no sheets", msg: msgUnreadable},
	{pattern: "has no tables", msg: msgUnreadable},
	{pattern: "content.xml", msg: msgUnreadable},
	{pattern: "unexpected package type", msg: msgUnreadable},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a candidate file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "no valid candidates",
		msg: UserMessage{
			Message: "No valid candidates were found",
			Action:  "Each row needs a name, an email and a recognised course",
			Code:    "VAL001",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "Required columns are missing",
			Action:  "Include Name, Email and Courses columns",
			Code:    "VAL002",
		},
	},
	{pattern: "invalid entry", msg: msgInvalidEntry},
	{pattern: "unknown course", msg: msgInvalidEntry},
	{pattern: "name is required", msg: msgInvalidEntry},
	{pattern: "not enrolled", msg: msgInvalidEntry},

	// =========================================================================
	// Batch Errors (BAT001-BAT003)
	// =========================================================================
	{
		pattern: "batch already running",
		msg: UserMessage{
			Message: "Certificates are already being generated",
			Action:  "Wait for the current run to finish",
			Code:    "BAT001",
		},
	},
	{pattern: "batch is empty", msg: msgNothingToProcess},
	{pattern: "no batch run", msg: msgNothingToProcess},
	{
		pattern: "candidate not found",
		msg: UserMessage{
			Message: "That candidate is not in the current batch",
			Action:  "Reload the page to see the current batch",
			Code:    "BAT003",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "The system is busy",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Access Errors (AUTH001)
	// =========================================================================
	{
		pattern: "invalid password",
		msg: UserMessage{
			Message: "Incorrect password",
			Action:  "Check the admin password and try again",
			Code:    "AUTH001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. It
// returns the first matching pattern, or ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
