package core

// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Invalid extension: Only .csv files can be combined
//	          Action: Export the file as CSV and add it again
//	FILE002 - Read failure: The file could not be read as text
//	          Action: Check the file is not damaged and is saved as UTF-8
//	FILE003 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller chunks
//	FILE004 - No file: No file was selected
//	          Action: Please select one or more CSV files
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Too many files: The batch would exceed the file limit
//	         Action: Remove some files or add fewer at once
//	SES002 - File not found: The file is no longer in this session
//	SES003 - Session expired: The session was not found
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Sentinel errors are matched first with errors.Is, in table order. Errors
// that carry no sentinel fall back to case-insensitive substring matching;
// the first matching pattern wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalidExtension = UserMessage{
		Message: "Only .csv files can be combined",
		Action:  "Export the file as CSV and add it again",
		Code:    "FILE001",
	}
	msgReadFailure = UserMessage{
		Message: "The file could not be read as text",
		Action:  "Check the file is not damaged and is saved as UTF-8",
		Code:    "FILE002",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select one or more CSV files",
		Code:    "FILE004",
	}
	msgCountExceeded = UserMessage{
		Message: "Too many files for one session",
		Action:  "Remove some files or add fewer at once",
		Code:    "SES001",
	}
	msgFileNotFound = UserMessage{
		Message: "The file is no longer in this session",
		Action:  "Refresh the page to see the current file list",
		Code:    "SES002",
	}
	msgSessionNotFound = UserMessage{
		Message: "Your session has expired",
		Action:  "Reload the page and add your files again",
		Code:    "SES003",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try fewer or smaller files, or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// sentinelMessages is checked before any pattern. FileTooLarge precedes
// ReadFailure because a too-large FileError wraps both.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileCountExceeded, msgCountExceeded},
	{ErrInvalidExtension, msgInvalidExtension},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrReadFailure, msgReadFailure},
	{ErrFileNotFound, msgFileNotFound},
	{ErrSessionNotFound, msgSessionNotFound},
	{ErrTooManyBatches, msgBusy},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors produced outside this package, such as
// multipart parsing failures in the web layer.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "too many uploads", msg: msgBusy},
	{pattern: "rate limit", msg: msgRateLimited},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
}

// defaultMessage is returned when no specific pattern matches.
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

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
