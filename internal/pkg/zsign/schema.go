package zsign

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FieldType is the JSON type a positional argument converts to.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldBool
	FieldArray
	FieldObject
)

func (f FieldType) String() string {
	switch f {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldBool:
		return "boolean"
	case FieldArray:
		return "array"
	case FieldObject:
		return "object"
	default:
		return fmt.Sprintf("FieldType(%d)", int(f))
	}
}

type Field struct {
	Name string
	Type FieldType
}

// SchemaFunc returns the ordered argument schema of a command.
type SchemaFunc func(command string) ([]Field, bool)

var signOfflineSchema = []Field{
	{Name: "project", Type: FieldString},
	{Name: "version", Type: FieldNumber},
	{Name: "from_address", Type: FieldString},
	{Name: "spending_notes", Type: FieldArray},
	{Name: "outputs", Type: FieldArray},
	{Name: "minconf", Type: FieldNumber},
	{Name: "fee", Type: FieldNumber},
	{Name: "next_block_height", Type: FieldNumber},
	{Name: "branch_id", Type: FieldNumber},
	{Name: "anchor", Type: FieldString},
	{Name: "overwintered", Type: FieldNumber},
	{Name: "expiry_height", Type: FieldNumber},
	{Name: "version_group_id", Type: FieldNumber},
	{Name: "tx_version", Type: FieldNumber},
	{Name: "zip212", Type: FieldNumber},
	{Name: "checksum", Type: FieldNumber},
}

// SchemaFor is the default SchemaFunc.
func SchemaFor(command string) ([]Field, bool) {
	switch command {
	case CommandSignOffline:
		return signOfflineSchema, true
	default:
		return nil, false
	}
}

// Convert applies fields to args positionally. Strings pass through, every
// other type is read as JSON and must decode to exactly that type.
func Convert(fields []Field, args []string) ([]any, error) {
	if len(fields) != len(args) {
		return nil, &ConversionError{
			Index: -1,
			Err:   fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, len(fields), len(args)),
		}
	}

	params := make([]any, 0, len(args))
	for i, field := range fields {
		value, err := convertValue(field.Type, args[i])
		if err != nil {
			return nil, &ConversionError{
				Index: i,
				Field: field.Name,
				Value: args[i],
				Err:   err,
			}
		}
		params = append(params, value)
	}

	return params, nil
}

func convertValue(fieldType FieldType, raw string) (any, error) {
	if fieldType == FieldString {
		return raw, nil
	}

	value, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}

	ok := false
	switch fieldType {
	case FieldNumber:
		_, ok = value.(json.Number)
	case FieldBool:
		_, ok = value.(bool)
	case FieldArray:
		_, ok = value.([]any)
	case FieldObject:
		_, ok = value.(map[string]any)
	}

	if !ok {
		return nil, fmt.Errorf("expected %s", fieldType)
	}

	return value, nil
}

var errTrailingData = errors.New("unexpected data after JSON value")

func decodeJSON(raw string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	var rest json.RawMessage
	if err := decoder.Decode(&rest); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return value, nil
}
