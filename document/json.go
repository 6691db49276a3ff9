package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultIndent is the indentation used when writing JSON documents.
const DefaultIndent = "  "

// ParseJSON parses a JSON object into an ordered Object.
func ParseJSON(data []byte) (*Object, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parsing JSON: empty document")
	}
	if trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	obj, err := parseJSONObject(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return obj, nil
}

// parseJSONObject decodes one JSON object, preserving key order via
// json.Decoder token streaming.
func parseJSONObject(data []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	obj := New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value for key %q: %w", key, err)
		}
		value, err := decodeJSONValue(raw)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", key, err)
		}
		obj.Set(key, value)
	}

	// Closing brace, then nothing else.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return obj, nil
}

func decodeJSONValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '{':
		return parseJSONObject(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return Raw(buf.Bytes()), nil
	}
}

// MarshalJSON encodes the object with the given indentation and a trailing
// newline. HTML characters are not escaped.
func MarshalJSON(o *Object, indent string) ([]byte, error) {
	var b bytes.Buffer
	if err := writeJSONObject(&b, o, "", indent); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeJSONObject(b *bytes.Buffer, o *Object, prefix, indent string) error {
	if o.Len() == 0 {
		b.WriteString("{}")
		return nil
	}
	inner := prefix + indent
	b.WriteString("{\n")
	for i, k := range o.keys {
		b.WriteString(inner)
		b.WriteString(jsonString(k))
		b.WriteString(": ")
		if err := writeJSONValue(b, o.values[k], inner, indent); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		if i < len(o.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(prefix)
	b.WriteByte('}')
	return nil
}

func writeJSONValue(b *bytes.Buffer, v any, prefix, indent string) error {
	switch t := v.(type) {
	case *Object:
		return writeJSONObject(b, t, prefix, indent)
	case string:
		b.WriteString(jsonString(t))
	case Raw:
		if err := json.Indent(b, t, prefix, indent); err != nil {
			return err
		}
	case nil:
		b.WriteString("null")
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// jsonString returns s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
