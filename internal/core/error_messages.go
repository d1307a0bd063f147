// Package core provides the business logic for shipment address routing.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
// Messages and actions are written in Traditional Chinese for the operators
// who use the upload page. Unreadable-file and missing-column errors also
// carry a Detail with the underlying cause.
//
//	FILE001 - File too large: 檔案超過大小上限
//	          Action: 請將出貨清單拆成較小的檔案
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unreadable file: 無法讀取試算表
//	          Action: 請將檔案另存為 .xlsx 後重新上傳
//	          Patterns: "unreadable file"
//
//	FILE003 - Unsupported format: 不支援此檔案類型
//	          Action: 請上傳 .xlsx、.xls 或 .csv 檔案
//	          Patterns: "unsupported file format"
//
//	FILE004 - No file: 尚未選擇檔案
//	          Action: 請選擇要上傳的試算表
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: 上傳的檔案沒有標題列
//	          Action: 請上傳包含標題列與資料列的檔案
//	          Patterns: "empty file"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Address column not found: 找不到地址欄位
//	         Action: 請確認有欄位名稱包含「地址」或「地」
//	         Patterns: "address column not found"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - No input: 本次工作階段尚未上傳檔案
//	         Action: 請先上傳出貨檔案
//	         Patterns: "no input loaded"
//
//	RUN002 - Run expired: 分類結果已失效
//	         Action: 請重新執行分類
//	         Patterns: "run not found"
//
//	RUN003 - System busy: 目前分類作業過多
//	         Action: 請稍候再試
//	         Patterns: "too many concurrent runs"
//
//	RUN004 - Unknown category: 未知的分類類別
//	         Action: 請使用結果頁面上的下載連結
//	         Patterns: "unknown category"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: 請求過於頻繁
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: 發生未預期的錯誤
//	         Action: 請再試一次或聯絡客服
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Detail  string // Underlying cause, when it helps the user fix the file
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "檔案超過大小上限",
			Action:  "請將出貨清單拆成較小的檔案",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "檔案超過大小上限",
			Action:  "請將出貨清單拆成較小的檔案",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unreadable file",
		msg: UserMessage{
			Message: "無法讀取試算表",
			Action:  "請將檔案另存為 .xlsx 後重新上傳",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "不支援此檔案類型",
			Action:  "請上傳 .xlsx、.xls 或 .csv 檔案",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "尚未選擇檔案",
			Action:  "請選擇要上傳的試算表",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "上傳的檔案沒有標題列",
			Action:  "請上傳包含標題列與資料列的檔案",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Column Errors (COL001)
	// =========================================================================
	{
		pattern: "address column not found",
		msg: UserMessage{
			Message: "找不到地址欄位",
			Action:  "請確認有欄位名稱包含「地址」或「地」",
			Code:    "COL001",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN004)
	// =========================================================================
	{
		pattern: "no input loaded",
		msg: UserMessage{
			Message: "本次工作階段尚未上傳檔案",
			Action:  "請先上傳出貨檔案",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "分類結果已失效",
			Action:  "請重新執行分類",
			Code:    "RUN002",
		},
	},
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "目前分類作業過多",
			Action:  "請稍候再試",
			Code:    "RUN003",
		},
	},
	{
		pattern: "unknown category",
		msg: UserMessage{
			Message: "未知的分類類別",
			Action:  "請使用結果頁面上的下載連結",
			Code:    "RUN004",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "請求已取消",
			Action:  "請再試一次",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "請求逾時",
			Action:  "請改用較小的檔案或檢查網路連線",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "請求逾時",
			Action:  "請改用較小的檔案或檢查網路連線",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "請求過於頻繁",
			Action:  "請稍候再試",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "發生未預期的錯誤",
	Action:  "請再試一次或聯絡客服",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
//
// Example:
//
//	err := fmt.Errorf("load input: %w", ErrMissingColumn)
//	msg := MapError(err)
//	// msg.Code == "COL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			msg := ep.msg
			msg.Detail = errorDetail(err)
			return msg
		}
	}
	return defaultMessage
}

// errorDetail extracts the cause recorded after a parse sentinel: the
// reader's own error for an unreadable file, and the tried matchers and
// headers for a missing address column.
func errorDetail(err error) string {
	switch {
	case errors.Is(err, ErrUnreadableFile):
		return textAfter(err.Error(), ErrUnreadableFile.Error()+":")
	case errors.Is(err, ErrMissingColumn):
		return strings.Trim(textAfter(err.Error(), ErrMissingColumn.Error()), "()")
	}
	return ""
}

func textAfter(s, sep string) string {
	_, tail, ok := strings.Cut(s, sep)
	if !ok {
		return ""
	}
	return strings.TrimSpace(tail)
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message（代碼：XXX）。Action", followed by the detail
// on its own line when there is one.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	out := fmt.Sprintf("%s（代碼：%s）。%s", msg.Message, msg.Code, msg.Action)
	if msg.Detail != "" {
		out += "\n" + msg.Detail
	}
	return out
}

// IsUserFacing checks if an error matches a known pattern.
// Returns false for nil and for errors that fall through to ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
