package zsign

import (
	"errors"
	"fmt"

	"github.com/piratenetwork/zsign/internal/pkg/rpc"
)

var (
	ErrEmptyInput     = errors.New("empty input")
	ErrEmptyResult    = errors.New("result is empty")
	ErrArgumentCount  = errors.New("argument count does not match schema")
	ErrUnknownCommand = errors.New("no schema for command")
)

// Kind classifies the outcome of ParseAndDispatch.
type Kind int

const (
	KindNone Kind = iota
	KindEmptyInput
	KindSchemaMismatch
	KindParameterConversion
	KindEmptyResult
	KindUnexpectedResult
	KindRemoteError
	KindUnparseableRemoteError
	KindUnknownFailure
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "signed"
	case KindEmptyInput:
		return "empty_input"
	case KindSchemaMismatch:
		return "schema_mismatch"
	case KindParameterConversion:
		return "parameter_conversion"
	case KindEmptyResult:
		return "empty_result"
	case KindUnexpectedResult:
		return "unexpected_result"
	case KindRemoteError:
		return "remote_error"
	case KindUnparseableRemoteError:
		return "unparseable_remote_error"
	default:
		return "unknown_failure"
	}
}

// SchemaMismatchError means the pasted text is not a well-formed command.
type SchemaMismatchError struct {
	Command string
	Tokens  int
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%q with %d tokens is not a valid %s command: %s", e.Command, e.Tokens, CommandSignOffline, e.Reason)
}

// ConversionError reports the argument that could not be converted. Index
// is -1 when the argument list as a whole does not fit the schema.
type ConversionError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("could not convert arguments: %v", e.Err)
	}

	return fmt.Sprintf("could not convert argument %d (%s) %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

type UnexpectedResultError struct {
	Message string
}

func (e *UnexpectedResultError) Error() string {
	return fmt.Sprintf("signed transaction not found in result: %s", e.Message)
}

func KindOf(err error) Kind {
	var (
		mismatch   *SchemaMismatchError
		conversion *ConversionError
		unexpected *UnexpectedResultError
		remote     *rpc.Error
		malformed  *rpc.MalformedError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.As(err, &mismatch):
		return KindSchemaMismatch
	case errors.As(err, &conversion):
		return KindParameterConversion
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	case errors.As(err, &unexpected):
		return KindUnexpectedResult
	case errors.As(err, &remote):
		return KindRemoteError
	case errors.As(err, &malformed):
		return KindUnparseableRemoteError
	default:
		return KindUnknownFailure
	}
}
