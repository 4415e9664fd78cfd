package domain

import (
	"errors"
	"fmt"
)

// 服务层错误类型：
// - ValidationError: 输入不合法（缺字段/超出范围），对应 HTTP 400
// - ErrNotFound: 按 id 查询/删除时记录不存在，对应 HTTP 404
// - PersistenceError: 数据库不可达或写入失败，对应 HTTP 500
// - ErrUpstreamUnavailable: 外部模型服务不可达，对应 HTTP 502

var (
	ErrNotFound            = errors.New("record not found")
	ErrUpstreamUnavailable = errors.New("upstream model service unavailable")
	ErrInvalidCredentials  = errors.New("invalid worker id or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
)

// ValidationError 字段校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError 创建字段校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError 持久化错误（包装底层驱动错误）
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError 创建持久化错误
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence 判断是否为持久化错误
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
