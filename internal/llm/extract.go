package llm

import (
	"encoding/json"
	"strings"
)

// Outcome tags an extraction result.
type Outcome int

const (
	Unparseable Outcome = iota
	Parsed
)

func (o Outcome) String() string {
	if o == Parsed {
		return "parsed"
	}
	return "unparseable"
}

// Result is the value found in a reply, or the raw reply when nothing
// usable was found.
type Result struct {
	Outcome Outcome
	Value   any
	Raw     string
}

func (r Result) OK() bool { return r.Outcome == Parsed }

// Object returns the parsed value as a JSON object, or nil.
func (r Result) Object() map[string]any {
	m, _ := r.Value.(map[string]any)
	return m
}

// Array returns the parsed value as a JSON array, or nil.
func (r Result) Array() []any {
	a, _ := r.Value.([]any)
	return a
}

// Decode re-encodes the parsed value into dst.
func (r Result) Decode(dst any) error {
	data, err := json.Marshal(r.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// ExtractObject parses the text between the first '{' and the last '}'.
func ExtractObject(text string) Result {
	return extract(text, '{', '}')
}

// ExtractArray parses the text between the first '[' and the last ']'.
func ExtractArray(text string) Result {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) Result {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return Result{Outcome: Unparseable, Raw: text}
	}
	var v any
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return Result{Outcome: Unparseable, Raw: text}
	}
	return Result{Outcome: Parsed, Value: v, Raw: text}
}

// Preview returns at most n runes of s.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
