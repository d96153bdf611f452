package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is the default maximum length for truncated strings.
const DefaultMaxStringLength = 500

// JSONToString converts object to its JSON representation, indented with two
// spaces when indent[0] is true. On a marshal error it returns the text
// {"error": "failed to marshal to JSON: <message>"}.
func JSONToString(object interface{}, indent ...bool) string {
	var encoded []byte
	var err error
	if indent != nil && len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return "{\"error\": \"failed to marshal to JSON: " + err.Error() + "\"}"
	}
	return string(encoded)
}

// ToString returns JSONToString's compact output for object, including its
// {"error": ...} text when marshaling fails.
func ToString(object interface{}) string {
	return JSONToString(object)
}

// TruncateString truncates s to maxLen characters, appending a suffix noting
// the original length. A non-positive maxLen falls back to
// DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// TruncateStringDefault truncates s using DefaultMaxStringLength.
func TruncateStringDefault(s string) string {
	return TruncateString(s, DefaultMaxStringLength)
}
