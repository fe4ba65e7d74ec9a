package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
)

func TestGrpcCode(t *testing.T) {
	assert.Equal(t, codes.OK, Code(nil), "code should be OK")

	err := fmt.Errorf("test error")
	assert.Equal(t, codes.Unknown, Code(err), "code should be unknown")

	err = WithCode(err, codes.InvalidArgument)
	assert.Equal(t, codes.InvalidArgument, Code(err), "code should be InvalidArgument")

	err = WithCode(err, codes.AlreadyExists)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should be AlreadyExists")

	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, codes.AlreadyExists, Code(err), "code should still be AlreadyExists")
}

func TestPrefix(t *testing.T) {
	err := fmt.Errorf("test error")
	err = WrapPrefix(err, "wrapped", 0)
	assert.Equal(t, "wrapped: test error", err.Error(), "error should have prefix")
}

func TestGRPCStatus(t *testing.T) {
	badRequest := &errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{
				Field:       "email",
				Description: "Email is required",
			},
		},
	}

	err := NewC("invalid request", codes.InvalidArgument).WithDetails(badRequest)
	st := err.GRPCStatus()
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "invalid request", st.Message())
	assert.Equal(t, "email", st.Details()[0].(*errdetails.BadRequest).FieldViolations[0].Field)
}

func TestPublicMessage(t *testing.T) {
	err := New("pq: duplicate key violates unique constraint")
	assert.Equal(t, "pq: duplicate key violates unique constraint", err.PublicMessage())

	err = err.WithPublicMessage("That email is already registered")
	assert.Equal(t, "That email is already registered", err.PublicMessage())
	assert.Equal(t, "That email is already registered", err.GRPCStatus().Message())
}

func TestWrappedError(t *testing.T) {
	err := NewC("test error", codes.InvalidArgument)
	wrappedErr := fmt.Errorf("%w : wrapped error", err)

	assert.Equal(t, codes.InvalidArgument, Code(wrappedErr))
}

func TestMark(t *testing.T) {
	sentinel := NewC("session expired", codes.Unauthenticated)
	markedErr := Mark(sentinel, 0)

	assert.True(t, Is(markedErr, sentinel), "marked error should still satisfy Is")
	assert.Equal(t, codes.Unauthenticated, Code(markedErr))
	assert.NotSame(t, sentinel, markedErr, "mark should copy, not alias")
}

func TestAppendPreservesIdentity(t *testing.T) {
	sentinel := NewC("invalid email or password", codes.Unauthenticated)
	err := Mark(sentinel, 0).Append("after 3 attempts")

	assert.True(t, Is(err, sentinel))
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, "invalid email or password", sentinel.Error(),
		"appending to a marked copy must not touch the sentinel")
}

func TestErrorIsInterop(t *testing.T) {
	// Standard-library errors.Is (and anything built on it, like testify's
	// ErrorIs) must recognize marked and wrapped copies of a sentinel.
	sentinel := NewC("record missing", codes.NotFound)

	assert.ErrorIs(t, Mark(sentinel, 0), sentinel)
	assert.ErrorIs(t, WrapPrefix(sentinel, "loading profile", 0), sentinel)
	assert.ErrorIs(t, Mark(sentinel, 0).Append("user-123"), sentinel)
	assert.NotErrorIs(t, Mark(sentinel, 0), NewC("other", codes.NotFound))
}

func TestMaybeWrap(t *testing.T) {
	assert.NoError(t, MaybeWrap(nil, 0), "nil in, nil interface out")

	err := MaybeWrap(io.EOF, 0)
	assert.Error(t, err)
	assert.True(t, Is(err, io.EOF))
}

func TestMinimalStack(t *testing.T) {
	err := New("boom")
	compact := err.MinimalStack(0, 3)
	assert.NotEmpty(t, compact)
	assert.Contains(t, compact, "errors_test.go")
	assert.LessOrEqual(t, len(strings.Split(compact, " <- ")), 3)
}

type keyedError struct {
	Key string
	Err error
}

func (e keyedError) Error() string {
	return "[" + e.Key + "]: " + e.Err.Error()
}

func (e keyedError) Is(target error) bool {
	matched, ok := target.(keyedError)
	return ok && matched.Key == e.Key
}

func TestIs(t *testing.T) {
	regularErr := fmt.Errorf("just a regular error")

	custErr := keyedError{Key: "session", Err: io.EOF}
	shouldMatch := keyedError{Key: "session"}
	shouldNotMatch := keyedError{Key: "identity"}

	tests := []struct {
		name     string
		target   error
		original error
		want     bool
	}{
		{name: "keyed error with same key", target: custErr, original: shouldMatch, want: true},
		{name: "keyed error with different key", target: custErr, original: shouldNotMatch, want: false},
		{name: "keyed error with same key, wrapped", target: Wrap(custErr, 0), original: shouldMatch, want: true},
		{name: "keyed error with different key, wrapped", target: Wrap(custErr, 0), original: shouldNotMatch, want: false},
		{name: "wrapped keyed error with same key", target: custErr, original: Wrap(shouldMatch, 0), want: true},
		{name: "wrapped keyed error with different key", target: custErr, original: Wrap(shouldNotMatch, 0), want: false},
		{name: "both wrapped, same key", target: Wrap(custErr, 0), original: Wrap(shouldMatch, 0), want: true},
		{name: "both wrapped, different key", target: Wrap(custErr, 0), original: Wrap(shouldNotMatch, 0), want: false},

		{name: "regular error", target: regularErr, original: regularErr, want: true},
		{name: "regular error, target wrapped", target: Wrap(regularErr, 0), original: regularErr, want: true},
		{name: "regular error, original wrapped", target: regularErr, original: Wrap(regularErr, 0), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Is(tt.target, tt.original))
		})
	}
}
