package common

import "fmt"

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// HasCode 判断错误链上是否带着指定错误码
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// 错误码常量
const (
	ErrCodeModelUnavailable     = "MODEL_UNAVAILABLE"
	ErrCodeModelResponseInvalid = "MODEL_RESPONSE_INVALID"
	ErrCodeRemoteFunction       = "REMOTE_FUNCTION_ERROR"
	ErrCodeDatabase             = "DATABASE_ERROR"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeAllStrategiesFailed  = "ALL_STRATEGIES_FAILED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)
