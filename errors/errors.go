// Package errors extends the standard library with errors that carry a
// stack trace, a gRPC status code, and an optional public message that is
// safe to show to users.
//
// It is derived from `github.com/go-errors/errors` and keeps the *Error type
// compatible with the builtin error interface, so it can be mixed freely with
// code that expects ordinary errors:
//
//	var ErrInvalidCredentials = errors.NewC("invalid email or password", codes.Unauthenticated)
//
//	func Authenticate(...) (*User, error) {
//	    if !match {
//	        return nil, errors.Mark(ErrInvalidCredentials, 0)
//	    }
//	    ...
//	}
//
// Callers branch on the cause with errors.Is and on the classification with
// errors.Code.
package errors

import (
	"bytes"
	baseErrors "errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/runtime/protoiface"
)

// The maximum number of stackframes on any error.
var MaxStackDepth = 50

// Error is an error with an attached stacktrace. It can be used
// wherever the builtin error interface is expected.
type Error struct {
	Err    error
	stack  []uintptr
	frames []StackFrame
	prefix string

	// gRPC status code classifying the error.
	code codes.Code

	// Structured details, e.g. errdetails.BadRequest for validation errors.
	details []protoiface.MessageV1

	// Message that is safe to surface to end users.
	publicMessage string
}

// New makes an Error from the given value. If that value is already an
// error then it will be used directly, if not, it will be passed to
// fmt.Errorf("%v"). The stacktrace will point to the line of code that
// called New.
func New(e interface{}) *Error {
	var err error

	switch e := e.(type) {
	case error:
		err = e
	default:
		err = fmt.Errorf("%v", e)
	}

	stack := make([]uintptr, MaxStackDepth)
	length := runtime.Callers(2, stack[:])
	return &Error{
		Err:   err,
		stack: stack[:length],
		code:  codes.Unknown,
	}
}

// NewC makes an Error with a status code defined.
func NewC(e interface{}, code codes.Code) *Error {
	var err error

	switch e := e.(type) {
	case error:
		err = e
	default:
		err = fmt.Errorf("%v", e)
	}

	stack := make([]uintptr, MaxStackDepth)
	length := runtime.Callers(2, stack[:])
	return &Error{
		Err:   err,
		stack: stack[:length],
		code:  code,
	}
}

// Wrap makes an Error from the given value. If that value is already an
// error then it will be used directly, if not, it will be passed to
// fmt.Errorf("%v"). The skip parameter indicates how far up the stack
// to start the stacktrace. 0 is from the current call, 1 from its caller, etc.
func Wrap(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}

	var err error

	switch e := e.(type) {
	case *Error:
		return e
	case error:
		err = e
	default:
		err = fmt.Errorf("%v", e)
	}

	stack := make([]uintptr, MaxStackDepth)
	length := runtime.Callers(2+skip, stack[:])
	return &Error{
		Err:   err,
		stack: stack[:length],
		code:  codes.Unknown,
	}
}

// MaybeWrap wraps non-nil errors and passes nil through untouched. Unlike
// Wrap, it returns the error interface, so a tail call of
// `return errors.MaybeWrap(err, 0)` never produces a non-nil interface
// holding a nil *Error.
func MaybeWrap(e error, skip int) error {
	if e == nil {
		return nil
	}
	return Wrap(e, 1+skip)
}

// WrapPrefix makes an Error from the given value. If that value is already an
// error then it will be used directly, if not, it will be passed to
// fmt.Errorf("%v"). The prefix parameter is used to add a prefix to the
// error message when calling Error(). The skip parameter indicates how far
// up the stack to start the stacktrace. 0 is from the current call,
// 1 from its caller, etc.
func WrapPrefix(e interface{}, prefix string, skip int) *Error {
	if e == nil {
		return nil
	}

	err := Wrap(e, 1+skip)

	if err.prefix != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, err.prefix)
	}

	return &Error{
		Err:           err.Err,
		stack:         err.stack,
		code:          err.code,
		details:       err.details,
		publicMessage: err.publicMessage,
		prefix:        prefix,
	}
}

// Mark takes an error and sets the stack trace from the point it was called,
// overriding any previous stack trace that may have been set. The skip
// parameter indicates how far up the stack to start the stacktrace. 0 is from
// the current call, 1 from its caller, etc.
//
// Mark copies, so appending to a marked sentinel never mutates the sentinel.
func Mark(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}
	if err, ok := e.(*Error); ok {
		stack := make([]uintptr, MaxStackDepth)
		length := runtime.Callers(2+skip, stack[:])
		return &Error{
			Err:           err.Err,
			stack:         stack[:length],
			code:          err.code,
			details:       err.details,
			publicMessage: err.publicMessage,
			prefix:        err.prefix,
		}
	}

	// If the error is not an `Error`, we can just use wrap.
	return Wrap(e, 1+skip)
}

// WithPublicMessage takes an error and adds a public message to it. If
// the error is not already an `Error`, it will be wrapped in one.
func WithPublicMessage(err error, publicMessage string) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithPublicMessage(publicMessage)
}

// WithCode takes an error and adds a gRPC status code to it. If the error is
// not already an `Error`, it will be wrapped in one.
func WithCode(err error, code codes.Code) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithCode(code)
}

// WithDetails takes an error and attaches structured details to it. If the
// error is not already an `Error`, it will be wrapped in one.
func WithDetails(err error, details ...protoiface.MessageV1) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, 1).WithDetails(details...)
}

// Errorf creates a new error with the given message. You can use it
// as a drop-in replacement for fmt.Errorf() to provide descriptive
// errors in return values.
func Errorf(format string, a ...interface{}) *Error {
	return Wrap(fmt.Errorf(format, a...), 1)
}

// Error returns the underlying error's message.
func (err *Error) Error() string {
	msg := err.Err.Error()
	if err.prefix != "" {
		msg = fmt.Sprintf("%s: %s", err.prefix, msg)
	}
	return msg
}

// Append adds supplementary text to the error message. The original error is
// kept wrapped, so Is and As checks still match it.
func (err *Error) Append(msg string) *Error {
	err.Err = fmt.Errorf("%w: %s", err.Err, msg)
	return err
}

// Stack returns the callstack formatted the same way that go does
// in runtime/debug.Stack().
func (err *Error) Stack() []byte {
	buf := bytes.Buffer{}

	for _, frame := range err.StackFrames() {
		buf.WriteString(frame.String())
	}

	return buf.Bytes()
}

// ErrorStack returns a string that contains both the
// error message and the callstack.
func (err *Error) ErrorStack() string {
	return err.TypeName() + " " + err.Error() + "\n" + string(err.Stack())
}

// MinimalStack renders a compact, single-line view of the stack: at most max
// frames, starting after the first skip frames. Useful in structured logs
// where the full multi-line stack is too noisy.
func (err *Error) MinimalStack(skip, max int) string {
	frames := err.StackFrames()
	if skip > len(frames) {
		skip = len(frames)
	}
	frames = frames[skip:]
	if len(frames) > max {
		frames = frames[:max]
	}
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = fmt.Sprintf("%s:%d %s", f.File, f.LineNumber, f.Name)
	}
	return strings.Join(parts, " <- ")
}

// StackFrames returns an array of frames containing information about the
// stack.
func (err *Error) StackFrames() []StackFrame {
	if err.frames == nil {
		err.frames = make([]StackFrame, len(err.stack))

		for i, pc := range err.stack {
			err.frames[i] = NewStackFrame(pc)
		}
	}

	return err.frames
}

// TypeName returns the type this error. e.g. *errors.stringError.
func (err *Error) TypeName() string {
	if _, ok := err.Err.(uncaughtPanic); ok {
		return "panic"
	}
	return reflect.TypeOf(err.Err).String()
}

// Unwrap returns the underlying error (implements the api used by As).
func (err *Error) Unwrap() error {
	return err.Err
}

// Is reports whether target represents the same error. Copies produced by
// Mark, WrapPrefix, and Append share the original's underlying error rather
// than wrapping the sentinel itself, so without this hook errors.Is (and
// testify's ErrorIs) could not match them against the sentinel.
func (err *Error) Is(target error) bool {
	if target, ok := target.(*Error); ok {
		return err.Err == target.Err || baseErrors.Is(err.Err, target.Err)
	}
	return false
}

// Code returns the gRPC status code associated with the error.
func (err *Error) Code() codes.Code {
	return err.code
}

// WithCode sets the gRPC status code associated with the error.
func (err *Error) WithCode(code codes.Code) *Error {
	err.code = code
	return err
}

// Details returns the structured details attached to the error.
func (err *Error) Details() []protoiface.MessageV1 {
	return err.details
}

// WithDetails attaches structured details to the error.
func (err *Error) WithDetails(details ...protoiface.MessageV1) *Error {
	err.details = append(err.details, details...)
	return err
}

// PublicMessage returns the error string that should be shown to users.
func (err *Error) PublicMessage() string {
	if err.publicMessage != "" {
		return err.publicMessage
	}
	return err.Error()
}

// WithPublicMessage sets the error string that should be shown to users.
func (err *Error) WithPublicMessage(publicMessage string) *Error {
	err.publicMessage = publicMessage
	return err
}

// GRPCStatus returns a status object for the error, carrying the code, the
// public message, and any structured details.
func (err *Error) GRPCStatus() *status.Status {
	st := status.New(err.Code(), err.PublicMessage())
	if len(err.details) > 0 {
		if detailed, e := st.WithDetails(err.details...); e == nil {
			st = detailed
		}
	}
	return st
}

// Code returns the gRPC status code for an arbitrary error. A nil error maps
// to codes.OK, an error exposing a `Code()` method reports its own code, and
// anything else maps to codes.Unknown. Wrapped errors are searched for the
// first coded error in the chain.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	for e := err; e != nil; e = baseErrors.Unwrap(e) {
		if c, ok := e.(codedError); ok {
			return c.Code()
		}
	}
	return codes.Unknown
}

// Is detects whether the error is equal to a given error. Errors
// are considered equal by this function if they are matched by errors.Is
// or if their contained errors are matched through errors.Is.
func Is(e error, original error) bool {
	if baseErrors.Is(e, original) {
		return true
	}

	if e, ok := e.(*Error); ok {
		return Is(e.Err, original)
	}

	if original, ok := original.(*Error); ok {
		return Is(e, original.Err)
	}

	return false
}

// As finds the first error in err's chain that matches target. Delegates to
// the standard library.
func As(err error, target interface{}) bool {
	return baseErrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. Delegates to
// the standard library.
func Unwrap(err error) error {
	return baseErrors.Unwrap(err)
}

type codedError interface {
	Code() codes.Code
}
