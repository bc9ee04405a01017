// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown  Code = "UNKNOWN"
	CodeInternal Code = "INTERNAL_ERROR"
	CodeTimeout  Code = "TIMEOUT"

	// 输入相关
	CodeMalformedInput Code = "MALFORMED_INPUT"
	CodeInvalidConfig  Code = "INVALID_CONFIG"

	// 求解相关
	CodeInfeasible         Code = "INFEASIBLE"
	CodeNoSolution         Code = "NO_SOLUTION"
	CodeSolverUnavailable  Code = "SOLVER_UNAVAILABLE"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"

	// 数据相关
	CodeDatabaseError Code = "DATABASE_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Field 读取字段，不存在时返回 nil
func (e *AppError) Field(key string) interface{} {
	if e.Fields == nil {
		return nil
	}
	return e.Fields[key]
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// ExitCode 错误码转进程退出码
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case CodeMalformedInput, CodeInvalidConfig:
		return 2
	case CodeInfeasible:
		return 3
	case CodeSolverUnavailable:
		return 4
	case CodeInvariantViolation:
		return 5
	case CodeTimeout, CodeNoSolution:
		return 6
	default:
		return 1
	}
}

// MalformedInput 创建输入表结构错误，table 为出错的表名
func MalformedInput(table, reason string) *AppError {
	return New(CodeMalformedInput, fmt.Sprintf("输入表 '%s' 格式错误: %s", table, reason)).
		WithField("table", table)
}

// InvalidConfig 创建配置错误
func InvalidConfig(field, reason string) *AppError {
	return New(CodeInvalidConfig, fmt.Sprintf("配置项 '%s' 无效: %s", field, reason)).
		WithField("field", field)
}

// Infeasible 创建无可行解错误
func Infeasible(hint string) *AppError {
	return New(CodeInfeasible, "无可行解: 没有满足全部硬约束的排班").WithDetails(hint)
}

// SolverUnavailable 创建求解器不可用错误
func SolverUnavailable(backend string, cause error) *AppError {
	return Wrap(cause, CodeSolverUnavailable, fmt.Sprintf("求解器 '%s' 不可用", backend)).
		WithField("backend", backend)
}

// InvariantViolation 创建模型不变量被破坏的错误
func InvariantViolation(reason string) *AppError {
	return New(CodeInvariantViolation, fmt.Sprintf("求解结果违反模型不变量: %s", reason))
}

// Timeout 创建求解超时错误
func Timeout(backend string) *AppError {
	return New(CodeTimeout, fmt.Sprintf("求解器 '%s' 在时限内未证明最优", backend)).
		WithField("backend", backend)
}

// NoSolution 创建非最优状态错误
func NoSolution(status string) *AppError {
	return New(CodeNoSolution, fmt.Sprintf("求解器未返回最优解，状态: %s", status)).
		WithField("status", status)
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Table  string            `json:"table"`
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := MalformedInput(ve.Table, ve.Error())
	for _, e := range ve.Errors {
		err.WithField(e.Field, e.Message)
	}
	return err
}
