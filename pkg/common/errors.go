package common

import "errors"

var (
	// ErrFixtureNotFound 赛事不在当前列表中
	ErrFixtureNotFound = errors.New("fixture not found")

	// ErrInvalidInput 无效输入错误
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream 上游 API 调用失败
	ErrUpstream = errors.New("upstream request failed")

	// ErrStoreDisabled 未配置数据库
	ErrStoreDisabled = errors.New("prediction store disabled")
)

// AppError 应用错误, Code 为失败的查询名
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError 创建应用错误
func NewAppError(code string, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
