package response

import "fmt"

// AppError 业务错误：业务码 + 文案 key，原始错误只进日志不进响应
type AppError struct {
	Code int
	Key  string
	Args []interface{}
	Data interface{}
	Err  error
}

// NewAppError 创建业务错误
func NewAppError(code int, key string, args ...interface{}) *AppError {
	return &AppError{Code: code, Key: key, Args: args}
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Code, e.Key)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCause 附加原始错误
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// WithData 附加响应数据
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// IsServerError 5xx 错误需要按 error 级别记录
func (e *AppError) IsServerError() bool {
	return e.Code >= CodeInternal
}
