package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/yeisme/creativevault/pkg/rule"
)

var (
	// ErrRecordNotFound 素材记录不存在.
	ErrRecordNotFound = errors.New("creative not found")
	// ErrMalformedRequest 请求体无法解析.
	ErrMalformedRequest = errors.New("malformed request body")
	// ErrInternalStorage 数据库或对象存储失败.
	ErrInternalStorage = errors.New("internal storage failure")
)

// 校验错误码.
const (
	CodeMissingRequiredField   = "MissingRequiredField"
	CodeUnknownReferenceCode   = "UnknownReferenceCode"
	CodeConflictingAssetSource = "ConflictingAssetSource"
	CodeInvalidDeleteFileType  = "InvalidDeleteFileType"
	CodeInvalidField           = "InvalidField"
)

// ValidationError 字段级校验失败，Details 为字段到原因的映射.
type ValidationError struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Code + ": " + e.Message
	}

	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	return e.Code + ": " + e.Message + " (" + strings.Join(fields, ", ") + ")"
}

// Fields 返回出错字段，按字母排序.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	return fields
}

func newValidationError(code, msg string, details map[string]string) *ValidationError {
	return &ValidationError{Code: code, Message: msg, Details: details}
}

// fromRuleError 将 rule 校验错误转换为 ValidationError，存在 required 失败时使用 MissingRequiredField.
func fromRuleError(err error) error {
	details := rule.Errors(err)
	if details == nil {
		return err
	}

	code := CodeInvalidField
	msg := "invalid field"

	for _, m := range details {
		if m == "is required" {
			code = CodeMissingRequiredField
			msg = "missing required field"

			break
		}
	}

	return newValidationError(code, msg, details)
}
