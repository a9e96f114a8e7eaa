package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Frontmatter delimiters.
var (
	yamlDelimiter = []byte("---")
	tomlDelimiter = []byte("+++")
)

// Date formats accepted for frontmatter date fields.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339,
}

// ParseFrontmatter splits raw content into metadata and body. Supported
// openings: "---" (YAML), "+++" (TOML), "{" on the first non-blank line
// followed by a balanced JSON object and a blank line. Anything else means
// no frontmatter: nil metadata, full content as body.
func ParseFrontmatter(raw []byte) (metadata map[string]any, body []byte, err error) {
	trimmed := bytes.TrimLeft(raw, " \t\n\r")

	switch {
	case bytes.HasPrefix(trimmed, yamlDelimiter):
		return parseDelimited(raw, trimmed, yamlDelimiter, "yaml")
	case bytes.HasPrefix(trimmed, tomlDelimiter):
		return parseDelimited(raw, trimmed, tomlDelimiter, "toml")
	case bytes.HasPrefix(trimmed, []byte("{")):
		return parseJSONFrontmatter(raw, trimmed)
	default:
		return nil, raw, nil
	}
}

func parseDelimited(raw, trimmed, delimiter []byte, format string) (map[string]any, []byte, error) {
	rest := trimmed[len(delimiter):]
	nlIdx := bytes.IndexByte(rest, '\n')
	if nlIdx == -1 {
		// Only the opening delimiter, nothing else.
		return nil, raw, nil
	}
	rest = rest[nlIdx+1:]

	before, after, ok := bytes.Cut(rest, delimiter)
	if !ok {
		return nil, nil, fmt.Errorf("closing frontmatter delimiter %q not found", string(delimiter))
	}

	var body []byte
	if nlIdx := bytes.IndexByte(after, '\n'); nlIdx != -1 {
		body = after[nlIdx+1:]
	}

	if len(bytes.TrimSpace(before)) == 0 {
		return map[string]any{}, body, nil
	}

	metadata := make(map[string]any)
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(before, &metadata); err != nil {
			return nil, nil, fmt.Errorf("parsing YAML frontmatter: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(before, &metadata); err != nil {
			return nil, nil, fmt.Errorf("parsing TOML frontmatter: %w", err)
		}
	}
	return metadata, body, nil
}

// parseJSONFrontmatter scans for the balanced closing brace of the object
// beginning at the first non-blank line, honoring strings and escapes.
func parseJSONFrontmatter(raw, trimmed []byte) (map[string]any, []byte, error) {
	depth := 0
	inString := false
	escaped := false
	end := -1

	for i, ch := range trimmed {
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, nil, fmt.Errorf("unbalanced JSON frontmatter")
	}

	metadata := make(map[string]any)
	if err := json.Unmarshal(trimmed[:end], &metadata); err != nil {
		return nil, nil, fmt.Errorf("parsing JSON frontmatter: %w", err)
	}

	body := trimmed[end:]
	// Drop the rest of the closing line and one blank line after it, if
	// present; a body that starts right after the closing line is accepted.
	if nl := bytes.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
		body = bytes.TrimPrefix(body, []byte("\n"))
	} else {
		body = nil
	}
	return metadata, body, nil
}

// parseDate parses a date value that may be a time.Time (YAML/TOML parsers
// auto-detect dates) or a string in one of the supported formats.
func parseDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, format := range dateFormats {
			if t, err := time.Parse(format, val); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse date string %q", val)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// toStringSlice accepts []string or []any of strings.
func toStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string in slice, got %T", item)
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("expected string slice, got %T", v)
	}
}

// toInt accepts the numeric types the frontmatter parsers produce.
func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("expected numeric type, got %T", v)
	}
}
