package translate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:[A-Za-z]+)?\\s*(.*?)\\s*```")

// parseMapping decodes a model reply into a key -> translated text mapping.
// The reply is first taken as-is; if it is not a JSON object, a recovery
// pass strips Markdown fences and surrounding prose and repairs invalid
// backslash escapes before parsing again. Non-string values are dropped,
// so the caller sees them as missing keys.
func parseMapping(content string) (map[string]string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	if m, ok := decodeObject(content); ok {
		return m, nil
	}

	recovered := content
	if m := markdownCodeBlock.FindStringSubmatch(recovered); len(m) > 1 {
		recovered = m[1]
	}

	// Find the outer JSON object
	start := strings.Index(recovered, "{")
	end := strings.LastIndex(recovered, "}")
	if start >= 0 && end > start {
		recovered = recovered[start : end+1]
	}

	recovered = fixInvalidEscapes(recovered)

	if m, ok := decodeObject(recovered); ok {
		return m, nil
	}
	return nil, fmt.Errorf("failed to parse translation response as JSON object: %s", truncate(content, 300))
}

func decodeObject(s string) (map[string]string, bool) {
	if !gjson.Valid(s) {
		return nil, false
	}
	root := gjson.Parse(s)
	if !root.IsObject() {
		return nil, false
	}
	out := make(map[string]string)
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			out[key.String()] = value.String()
		}
		return true
	})
	return out, true
}

// fixInvalidEscapes doubles backslashes that do not start a valid JSON
// escape sequence inside string literals. Models sometimes emit \& or \[
// unescaped.
func fixInvalidEscapes(s string) string {
	var fixed strings.Builder
	fixed.Grow(len(s))
	inQuote := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			fixed.WriteByte(c)
			escaped = false
			continue
		}

		if c == '"' {
			inQuote = !inQuote
			fixed.WriteByte(c)
			continue
		}

		if inQuote && c == '\\' {
			if i+1 < len(s) && strings.IndexByte(`"\/bfnrtu`, s[i+1]) >= 0 {
				fixed.WriteByte(c)
				escaped = true
				continue
			}
			fixed.WriteString(`\\`)
			continue
		}

		fixed.WriteByte(c)
	}
	return fixed.String()
}
