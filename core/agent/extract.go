package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// codeBlockPattern matches markdown code blocks with an optional language tag.
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n` + "```")

// ExtractJSON pulls a single JSON object or array out of a free-text model
// response. Content inside ```json fences wins over raw JSON embedded in
// prose; a response with neither yields a ParseError.
func ExtractJSON(response string) (string, error) {
	if jsonStr, found := extractFromCodeBlock(response); found {
		return jsonStr, nil
	}
	if jsonStr, found := extractRawJSON(response); found {
		return jsonStr, nil
	}
	return "", &ParseError{Reason: "no JSON object found in response"}
}

// ExtractJSONInto extracts JSON from response and unmarshals it into out.
func ExtractJSONInto(response string, out interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return &ParseError{Reason: "JSON does not match expected shape: " + err.Error()}
	}
	return nil
}

func extractFromCodeBlock(response string) (string, bool) {
	matches := codeBlockPattern.FindAllStringSubmatch(response, -1)
	for _, match := range matches {
		if len(match) < 3 {
			continue
		}
		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Skip blocks tagged as some other language.
		if lang != "" && lang != "json" {
			continue
		}
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			if isValidJSON(content) {
				return content, true
			}
		}
	}
	return "", false
}

func extractRawJSON(response string) (string, bool) {
	startObj := strings.Index(response, "{")
	startArr := strings.Index(response, "[")

	start := -1
	endChar := byte('}')
	if startObj >= 0 && (startArr < 0 || startObj < startArr) {
		start = startObj
	} else if startArr >= 0 {
		start = startArr
		endChar = ']'
	}
	if start < 0 {
		return "", false
	}

	jsonStr := findMatchingBracket(response[start:], endChar)
	if jsonStr != "" && isValidJSON(jsonStr) {
		return jsonStr, true
	}
	return "", false
}

// findMatchingBracket walks the string tracking nesting depth and string
// literals to find the end of the leading JSON value.
func findMatchingBracket(s string, closeChar byte) string {
	if len(s) == 0 {
		return ""
	}

	openChar := s[0]
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}
