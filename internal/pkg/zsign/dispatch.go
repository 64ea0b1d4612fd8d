package zsign

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/piratenetwork/zsign/internal/pkg/rpc"
)

const (
	HeadingDefault = "Signed transaction output:"
	HeadingSigned  = "Signed transaction output: The transaction was successfully signed. Paste the contents in your on-line wallet to complete the transaction"

	// SignedMarker is present in every signed result, which is a ready made
	// sendrawtransaction command for the online wallet.
	SignedMarker = "sendrawtransaction"

	MsgEmptyResult      = "Transaction signing failed. The result is empty"
	MsgUnexpectedResult = "Transaction signing failed. Could not find the signed transaction in the result: "
	MsgRemoteError      = "Transaction signing failed: %s\n"
	MsgUnparseable      = "Transaction signing failed. Could not parse the response. Please look in the log and command line output\n"
)

// Display is what the result area shows: a heading and the result text.
type Display struct {
	Heading string
	Text    string
}

// Initial is the display before anything was signed.
func Initial() Display {
	return Display{Heading: HeadingDefault}
}

// ParseAndDispatch turns pasted text into a z_sign_offline call and returns
// the signed result. Every failure is returned as an error; Render maps it to
// display text.
func ParseAndDispatch(ctx context.Context, raw string, dispatcher rpc.Dispatcher, schemaFor SchemaFunc) (Display, error) {
	tokens := Tokenize(raw)
	if err := Validate(tokens); err != nil {
		return Display{}, err
	}

	command := tokens[0]
	fields, ok := schemaFor(command)
	if !ok {
		return Display{}, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	params, err := Convert(fields, Arguments(tokens))
	if err != nil {
		return Display{}, err
	}

	result, err := execute(ctx, dispatcher, command, params)
	if err != nil {
		return Display{}, err
	}

	signed, err := Interpret(result)
	if err != nil {
		return Display{}, err
	}

	return Display{Heading: HeadingSigned, Text: signed}, nil
}

func execute(ctx context.Context, dispatcher rpc.Dispatcher, command string, params []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%s handler panicked: %v", command, r)
		}
	}()

	return dispatcher.Execute(ctx, command, params)
}

// Interpret extracts the signed transaction from a z_sign_offline result.
func Interpret(result any) (string, error) {
	values, ok := result.([]any)
	if !ok || len(values) == 0 {
		return "", ErrEmptyResult
	}

	message, ok := values[0].(string)
	if !ok {
		return "", ErrEmptyResult
	}

	if !strings.Contains(message, SignedMarker) {
		return "", &UnexpectedResultError{Message: message}
	}

	return message, nil
}

// Render maps an outcome of ParseAndDispatch to display text. It reports
// false when the display must stay as it is.
func Render(display Display, err error) (Display, bool) {
	if err == nil {
		return display, true
	}

	failed := func(text string) (Display, bool) {
		return Display{Heading: HeadingDefault, Text: text}, true
	}

	switch KindOf(err) {
	case KindEmptyInput:
		return Display{}, false
	case KindSchemaMismatch:
		return failed(Usage())
	case KindEmptyResult:
		return failed(MsgEmptyResult)
	case KindUnexpectedResult:
		var unexpected *UnexpectedResultError
		errors.As(err, &unexpected)
		return failed(MsgUnexpectedResult + unexpected.Message)
	case KindRemoteError:
		var remote *rpc.Error
		errors.As(err, &remote)
		return failed(fmt.Sprintf(MsgRemoteError, remote.Message))
	default:
		return failed(MsgUnparseable)
	}
}
