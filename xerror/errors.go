package xerror

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"
)

type Error struct {
	code  int    // 错误类别
	msg   string // 可读的错误消息
	cause error  // 原始错误
	stack string // 可选的调用栈信息
}

// Code 返回错误类别
func (e *Error) Code() int {
	return e.code
}

// Message 返回错误消息
func (e *Error) Message() string {
	return e.msg
}

// Cause 返回原始错误
func (e *Error) Cause() error {
	return e.cause
}

// Stack 返回调用栈信息
func (e *Error) Stack() string {
	return e.stack
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap 实现错误链支持
func (e *Error) Unwrap() error {
	return e.cause
}

var errorMetric = metric.NewCounterVec(&metric.CounterVecOpts{
	Namespace: "obfuscator",
	Subsystem: "error",
	Name:      "total",
	Help:      "How many errors aborted a run, partitioned by error kind.",
	Labels:    []string{"code"},
})

func New(code int, err error) *Error {
	if err == nil {
		err = errors.New("error not set")
	}

	ce := &Error{code: code, cause: err}
	if v, ok := ErrMsgs[code]; ok {
		ce.msg = v
	} else {
		ce.msg = "error"
	}

	return ce
}

// Newf is New with a formatted cause.
func Newf(code int, format string, args ...any) *Error {
	return New(code, fmt.Errorf(format, args...))
}

// RaiseCtx logs err and counts it. Errors that already carry a kind keep it;
// a captured stack is logged with the error.
func RaiseCtx(ctx context.Context, code int, err error) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if !errors.As(err, &ce) {
		ce = New(code, err)
		err = ce
	}

	errorMetric.Inc(strconv.Itoa(ce.code))
	logger := logx.WithContext(ctx).WithCallerSkip(1)
	if ce.stack != "" {
		logger = logger.WithFields(logx.Field("stack", ce.stack))
	}
	logger.Errorf("%v", err)

	return err
}

// NewWithStack is New plus the caller's stack, for errors that point at a
// bug in a pass rather than at bad input.
func NewWithStack(code int, err error) *Error {
	ce := New(code, err)
	ce.stack = getStack(3)
	return ce
}

// CodeOf returns the kind of the first *Error in err's chain, or 0.
func CodeOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.code
	}
	return 0
}

func Is(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}

func getStack(offset int) string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(offset, pcs[:])

	var str strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		str.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return str.String()
}
