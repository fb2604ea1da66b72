package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

/* Header and query maps are stored as JSON objects.
 * JSON strings must be valid UTF-8, but captured keys and values may carry
 * any byte. Every string goes through escapeBytes first: a backslash is
 * doubled and each byte that is not part of valid UTF-8 becomes \xHH, so
 * the stored text is readable and decodes back to the exact bytes.
 */

var errBadEscape = errors.New("malformed escape in stored field")

// MarshalFields encodes a header or query map byte for byte
func MarshalFields(fields map[string]string) ([]byte, error) {
	escaped := make(map[string]string, len(fields))
	for k, v := range fields {
		escaped[escapeBytes(k)] = escapeBytes(v)
	}
	return json.Marshal(escaped)
}

// UnmarshalFields reverses MarshalFields
func UnmarshalFields(data []byte) (map[string]string, error) {
	var escaped map[string]string
	if err := json.Unmarshal(data, &escaped); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(escaped))
	for k, v := range escaped {
		key, err := unescapeBytes(k)
		if err != nil {
			return nil, err
		}
		value, err := unescapeBytes(v)
		if err != nil {
			return nil, err
		}
		fields[key] = value
	}
	return fields, nil
}

func escapeBytes(s string) string {
	if utf8.ValidString(s) && !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' {
			b.WriteString(`\\`)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

func unescapeBytes(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		switch {
		case i+1 < len(s) && s[i+1] == '\\':
			b.WriteByte('\\')
			i++
		case i+3 < len(s) && s[i+1] == 'x':
			n, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
			if err != nil {
				return "", errBadEscape
			}
			b.WriteByte(byte(n))
			i += 3
		default:
			return "", errBadEscape
		}
	}
	return b.String(), nil
}
