package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	r := ExtractObject("Sure! Here you go:\n```json\n{\"files\": {\"a.tsx\": \"x\"}}\n```\nEnjoy.")
	require.True(t, r.OK())
	files, ok := r.Object()["files"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", files["a.tsx"])

	var out struct {
		Files map[string]string `json:"files"`
	}
	require.NoError(t, r.Decode(&out))
	assert.Equal(t, "x", out.Files["a.tsx"])
}

func TestExtractUnparseable(t *testing.T) {
	for _, text := range []string{"no json here", "} backwards {", "{not: valid}", ""} {
		r := ExtractObject(text)
		assert.False(t, r.OK(), text)
		assert.Equal(t, Unparseable, r.Outcome)
		assert.Equal(t, text, r.Raw)
		assert.Nil(t, r.Object())
	}
}

func TestExtractArray(t *testing.T) {
	r := ExtractArray(`Ideas: [{"name":"a"},{"name":"b"}] done`)
	require.True(t, r.OK())
	assert.Len(t, r.Array(), 2)

	assert.False(t, ExtractArray(`{"name":"a"}`).OK())
}

func TestSchemaCheck(t *testing.T) {
	good := ExtractObject(`{"files":{"a.ts":"1"}}`)
	assert.True(t, FilesSchema.Check(good).OK())

	missing := ExtractObject(`{"design":{}}`)
	checked := FilesSchema.Check(missing)
	assert.False(t, checked.OK())
	assert.Equal(t, `{"design":{}}`, checked.Raw)

	wrongType := ExtractObject(`{"files":{"a.ts":1}}`)
	assert.False(t, FilesSchema.Check(wrongType).OK())

	assert.True(t, ChangesSchema.Check(missing).OK())
	assert.False(t, ChangesSchema.Check(wrongType).OK())

	assert.Error(t, WorkflowSchema.Validate(map[string]any{"name": "x"}))
	assert.NoError(t, WorkflowSchema.Validate(map[string]any{"name": "x", "steps": []any{}}))
	assert.Error(t, RemixSchema.Validate(map[string]any{"remixName": "x", "endpointsUsed": "GET /a"}))
	assert.Error(t, IntentSchema.Validate(map[string]any{"understanding": "u", "selectedEndpoints": []any{}, "workflow": map[string]any{"name": "w"}}))
}

func TestParseCodeBlocks(t *testing.T) {
	text := "Here:\n```tsx\n// src/App.tsx\nexport default App;\n```\nand\n```json\n# package.json\n{\"name\":\"x\"}\n```"
	files := ParseCodeBlocks(text)
	require.Len(t, files, 2)
	assert.Equal(t, "export default App;", files["src/App.tsx"])
	assert.Equal(t, `{"name":"x"}`, files["package.json"])

	plain := ParseCodeBlocks("just prose")
	assert.Equal(t, map[string]string{"generated.tsx": "just prose"}, plain)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "const a = 1;", StripFence("Updated:\n```ts\nconst a = 1;\n```"))
	assert.Equal(t, "raw code", StripFence("raw code"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", Preview("abcdef", 3))
	assert.Equal(t, "ab", Preview("ab", 3))
}
