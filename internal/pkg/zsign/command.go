package zsign

import (
	"fmt"
	"strings"
)

const CommandSignOffline = "z_sign_offline"

const (
	// ExpectedTokens counts the command name and its 16 arguments.
	ExpectedTokens = 17
	VersionMarker  = "1"

	versionIndex = 2
)

// Tokenize trims raw, unescapes \" and splits on single spaces.
//
// The split is naive: a quoted value that contains a space is split like any
// other text. Memos are hex encoded by z_sendmany_prepare_offline.
func Tokenize(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	// Console output wraps the command in quotes and escapes the inner ones.
	text = strings.ReplaceAll(text, `\"`, `"`)

	return strings.Split(text, " ")
}

// Validate checks the command name, the token count and the version marker.
func Validate(tokens []string) error {
	if len(tokens) == 0 {
		return ErrEmptyInput
	}

	mismatch := func(reason string) error {
		return &SchemaMismatchError{Command: tokens[0], Tokens: len(tokens), Reason: reason}
	}

	switch {
	case tokens[0] != CommandSignOffline:
		return mismatch("unknown command")
	case len(tokens) != ExpectedTokens:
		return mismatch(fmt.Sprintf("expected %d tokens", ExpectedTokens))
	case tokens[versionIndex] != VersionMarker:
		return mismatch(fmt.Sprintf("unsupported version %q", tokens[versionIndex]))
	}

	return nil
}

// Arguments strips quoting from every token after the command name.
// A token starting with a single quote holds JSON, so only the single quotes
// go and its inner double quotes stay. Any other token loses its double quotes.
func Arguments(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}

	args := make([]string, 0, len(tokens)-1)
	for _, token := range tokens[1:] {
		if strings.HasPrefix(token, "'") {
			args = append(args, strings.ReplaceAll(token, "'", ""))
			continue
		}
		args = append(args, strings.ReplaceAll(token, `"`, ""))
	}

	return args
}
