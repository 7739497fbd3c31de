package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - The uploaded file could not be read (I/O failure mid-pass)
//	SRC002 - The file is not valid CSV (malformed quoting, protocol violation)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File exceeds the configured size limit
//	          Patterns: "file too large", "request body too large"
//	FILE004 - No file in the dataFile form field
//	          Patterns: "no file provided"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - All analysis slots are busy
//	UPL003 - No running or recent analysis with this ID
//	UPL004 - Request was cancelled ("context canceled")
//	UPL005 - Request timed out ("context deadline exceeded")
//
// # Cache Errors (CACHE001-CACHE099)
//
//	CACHE001 - Analytics not found or expired
//
// # Storage Errors (DB001-DB099)
//
//	DB002 - Duplicate file ID ("unique constraint", "duplicate key")
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Database busy ("database is locked")
//
// # Rate Limiting
//
//	RATE001 - Too many requests
//
// # Default
//
//	ERR000 - Unknown error; check the logs for the technical error.
//
// Typed and sentinel errors are matched first with errors.Is/As. Anything
// else falls through to case-insensitive substring patterns; the first
// match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/JonMunkholm/csvstats/internal/store"
)

var (
	ErrNoFile       = errors.New("no file provided")
	ErrFileTooLarge = errors.New("file too large")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgReadFailed = UserMessage{
		Message: "The uploaded file could not be read",
		Action:  "Please upload the file again",
		Code:    "SRC001",
	}
	msgMalformedCSV = UserMessage{
		Message: "The file is not valid CSV",
		Action:  "Check quoting and delimiters, and save the file as plain CSV",
		Code:    "SRC002",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}
	msgBusy = UserMessage{
		Message: "System is busy analyzing other files",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgAnalysisNotFound = UserMessage{
		Message: "Analysis not found",
		Action:  "The analysis may have finished long ago. Check the file list",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgAnalyticsNotFound = UserMessage{
		Message: "Analytics not found in cache",
		Action:  "Results expire after a while. Upload the file again",
		Code:    "CACHE001",
	}
)

// sentinelMessages are checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrTooManyAnalyses, msgBusy},
	{ErrAnalysisNotFound, msgAnalysisNotFound},
	{ErrAnalyticsNotFound, msgAnalyticsNotFound},
	{store.ErrNotFound, msgAnalyticsNotFound},
	{ErrNoFile, msgNoFile},
	{ErrFileTooLarge, msgTooLarge},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgDeadline},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "no file provided", msg: msgNoFile},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A file with this ID already exists",
			Action:  "Please upload the file again",
			Code:    "DB002",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A file with this ID already exists",
			Action:  "Please upload the file again",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to storage",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Storage connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Storage was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message, or the
// ERR000 fallback when nothing matches. A nil error maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var parseErr *profile.SourceParseError
	if errors.As(err, &parseErr) {
		return msgMalformedCSV
	}
	var readErr *profile.SourceReadError
	if errors.As(err, &readErr) {
		return msgReadFailed
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
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

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
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

// NewUserError maps err, returning nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
