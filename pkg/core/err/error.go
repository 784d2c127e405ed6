package errorc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"alerthub/pkg/core/consts"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	enableFullStack = true
	stackBufferPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 4096)
		},
	}
)

var notfounds = []error{gorm.ErrRecordNotFound, redis.Nil}

type ErrorBuilder struct {
	entryName string
}

func NewErrorBuilder(entryName string) *ErrorBuilder {
	return &ErrorBuilder{entryName: entryName}
}

// New 构造带调用位置的错误，err 可以为 nil
func (e *ErrorBuilder) New(msg string, err error) *Error {
	stack := caller(2)
	stack.Msg = msg
	stack.Cause = err
	stack.Entry = e.entryName
	stack.ErrorCode = getErrCode(err)
	return stack
}

func New(msg string, err error) *Error {
	stack := caller(2)
	stack.Msg = msg
	stack.Cause = err
	stack.ErrorCode = getErrCode(err)
	return stack
}

// Quick 不采集调用位置
func (e *ErrorBuilder) Quick(msg string, err error) *Error {
	return &Error{Msg: msg, Cause: err, Entry: e.entryName, ErrorCode: getErrCode(err)}
}

func Quick(msg string, err error) *Error {
	return &Error{Msg: msg, Cause: err, ErrorCode: getErrCode(err)}
}

func (e *ErrorBuilder) NotFound(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeNotFound}
}

func (e *ErrorBuilder) BadRequest(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeValid}
}

func (e *ErrorBuilder) Internal(msg string) *Error {
	return &Error{Msg: msg, Entry: e.entryName, ErrorCode: ErrorCodeInternal}
}

func (e *Error) WithTraceID(ctx context.Context) *Error {
	e.TraceID = ""
	if ctx != nil {
		if id, ok := ctx.Value(consts.TraceKey).(string); ok {
			e.TraceID = id
		}
	}
	return e
}

func (e *Error) WithCode(code *ErrorCode) *Error {
	e.ErrorCode = code
	return e
}

func (e *Error) DB() *Error {
	if e.ErrorCode == ErrorCodeNotFound {
		return e
	}
	e.ErrorCode = ErrorCodeDB
	return e
}

func (e *Error) Third() *Error {
	e.ErrorCode = ErrorCodeThird
	return e
}

func (e *Error) Valid() *Error {
	e.ErrorCode = ErrorCodeValid
	return e
}

func (e *Error) NotFound() *Error {
	e.ErrorCode = ErrorCodeNotFound
	return e
}

func (e *Error) Unavailable() *Error {
	e.ErrorCode = ErrorCodeUnavailable
	return e
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// chain 返回由外到内的错误链，以及最内层包装了非 *Error 原始错误的节点
func (e *Error) chain() ([]*Error, *Error, error) {
	var errChain []*Error
	for curr := e; ; {
		errChain = append(errChain, curr)
		next, ok := curr.Cause.(*Error)
		if !ok || next == nil {
			break
		}
		curr = next
	}

	for i := len(errChain) - 1; i >= 0; i-- {
		if c := errChain[i].Cause; c != nil {
			if _, ok := c.(*Error); !ok {
				return errChain, errChain[i], c
			}
		}
	}
	root := errChain[len(errChain)-1]
	return errChain, root, root.Cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	errChain, root, original := e.chain()

	var sb strings.Builder
	sb.WriteString(root.Msg)
	if original != nil {
		if root.Msg != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(original.Error())
	}
	if len(errChain) > 1 {
		sb.WriteString(" (")
		for i, item := range errChain {
			if i > 0 {
				sb.WriteString(" <- ")
			}
			sb.WriteString(item.Msg)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// RootCause 返回根因的单行描述，带文件位置
func (e *Error) RootCause() string {
	if e == nil {
		return ""
	}
	_, root, original := e.chain()

	var sb strings.Builder
	sb.WriteString(root.Msg)
	if original != nil {
		sb.WriteString(fmt.Sprintf(": %v", original))
	}
	if root.FileName != "" {
		sb.WriteString(fmt.Sprintf(" at %s:%d", root.FileName, root.Line))
	}
	return sb.String()
}

func (e *Error) ToLog(log *logrus.Entry, msgs ...string) *Error {
	if e == nil {
		return nil
	}
	errChain, root, original := e.chain()

	fields := logrus.Fields{
		"root_cause_file": root.FileName,
		"root_cause_line": root.Line,
		"root_cause_msg":  root.Msg,
	}
	if original != nil {
		fields["root_cause_original_error"] = original.Error()
	}
	if root.ErrorCode != nil {
		fields["root_cause_error_code"] = root.ErrorCode.String()
	}

	chain := make([]map[string]interface{}, 0, len(errChain))
	for _, item := range errChain {
		level := map[string]interface{}{
			"file": item.FileName,
			"line": item.Line,
			"func": item.FuncName,
			"msg":  item.Msg,
		}
		if item.ErrorCode != nil {
			level["code"] = item.ErrorCode.String()
		}
		if item == e && enableFullStack {
			if stack := item.fullStack(); stack != "" {
				level["stack_trace"] = stack
			}
		}
		chain = append(chain, level)
	}
	fields["error_chain"] = chain
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}

	finalMsg := e.Msg
	if len(msgs) > 0 {
		finalMsg = strings.Join(msgs, ", ")
	}
	log.WithFields(fields).Error(finalMsg)
	return e
}

func caller(skip int) *Error {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return &Error{FileName: "<unknown>", FuncName: "<unknown>"}
	}
	funcName := "<unknown>"
	if details := runtime.FuncForPC(pc); details != nil {
		funcName = details.Name()
	}
	return &Error{FileName: file, Line: line, FuncName: funcName}
}

func (e *Error) fullStack() string {
	if e.Stack != "" || !enableFullStack {
		return e.Stack
	}
	buf := stackBufferPool.Get().([]byte)
	defer stackBufferPool.Put(buf)

	n := runtime.Stack(buf, false)
	e.Stack = string(buf[:n])
	return e.Stack
}

func SetStackTraceEnabled(enabled bool) {
	enableFullStack = enabled
}

func getErrCode(err error) *ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	var inner *Error
	if errors.As(err, &inner) && inner.ErrorCode != nil {
		return inner.ErrorCode
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return ErrorCodeNotFound
		}
	}
	return ErrorCodeUnknown
}

func ParseError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Quick("", err)
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.ErrorCode == ErrorCodeNotFound {
		return true
	}
	for _, target := range notfounds {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// HasCode 判断错误链上是否存在指定错误码
func HasCode(err error, code *ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.ErrorCode == code {
			return true
		}
		err = e.Cause
	}
	return false
}
