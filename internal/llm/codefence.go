package llm

import (
	"regexp"
	"strings"
)

var (
	codeBlockRe = regexp.MustCompile("```(?:\\w+)?\\s*(?://|#)\\s*([^\\n]+)\\n([\\s\\S]*?)```")
	fenceRe     = regexp.MustCompile("```(?:\\w+)?\\n([\\s\\S]*?)\\n```")
)

// ParseCodeBlocks collects fenced blocks whose first line is a "// name" or
// "# name" comment into a file map. A reply without such blocks becomes a
// single generated.tsx file.
func ParseCodeBlocks(text string) map[string]string {
	files := map[string]string{}
	for _, m := range codeBlockRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		files[name] = strings.TrimSpace(m[2])
	}
	if len(files) == 0 {
		files["generated.tsx"] = text
	}
	return files
}

// StripFence returns the body of the first fenced block, or text unchanged
// when there is none.
func StripFence(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
