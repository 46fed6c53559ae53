// Package prompt assembles chat-completion prompts. Every function is pure.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/shoot/pkg/types"
)

// Prompt is a system and user message pair.
type Prompt struct {
	System string
	User   string
}

const jsonOnly = " Return only valid JSON."

// describe prefers the summary, then the description, then fallback.
func describe(e types.Endpoint, fallback string) string {
	if e.Summary != "" {
		return e.Summary
	}
	if e.Description != "" {
		return e.Description
	}
	return fallback
}

// NumberedEndpoints renders "1. GET /pets - List pets" lines.
func NumberedEndpoints(eps []types.Endpoint) string {
	lines := make([]string, len(eps))
	for i, e := range eps {
		lines[i] = fmt.Sprintf("%d. %s %s - %s", i+1, e.Method, e.Path, describe(e, "No description"))
	}
	return strings.Join(lines, "\n")
}

// BulletEndpoints renders "- GET /pets: List pets" lines.
func BulletEndpoints(eps []types.Endpoint) string {
	lines := make([]string, len(eps))
	for i, e := range eps {
		lines[i] = fmt.Sprintf("- %s %s: %s", e.Method, e.Path, describe(e, ""))
	}
	return strings.Join(lines, "\n")
}

func selectedLines(sel []types.SelectedEndpoint) string {
	lines := make([]string, len(sel))
	for i, s := range sel {
		lines[i] = fmt.Sprintf("- %s: %s", s.Endpoint, s.Purpose)
	}
	return strings.Join(lines, "\n")
}

// codeListing renders every file as "// name" followed by its source, in
// name order so prompts are stable.
func codeListing(code types.CodeMap, sep string) string {
	names := sortedNames(code)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("\n// %s\n%s", n, code[n])
	}
	return strings.Join(parts, sep)
}

func sortedNames(code types.CodeMap) []string {
	names := make([]string, 0, len(code))
	for n := range code {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func indentJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// General is the system prompt of free-form chat.
func General(hasSpec bool) string {
	state := "No spec is currently loaded."
	if hasSpec {
		state = "The user is currently working with a spec."
	}
	return "You are an expert AI assistant for an API spec to app generator called Shoot.\n" +
		"You help users upload API specifications, analyze them, and generate applications.\n" +
		"Be conversational, helpful, and guide users through the process.\n" +
		"Keep responses concise but informative.\n" + state
}
