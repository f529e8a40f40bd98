package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestWriteDictionary_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDictionary(&buf, false))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 33)
	assert.True(t, strings.HasPrefix(lines[0], "COLUMN"))
	assert.True(t, strings.HasPrefix(lines[1], "job_id"))
	assert.Contains(t, lines[1], "string")
	assert.True(t, strings.HasPrefix(lines[32], "image_size_kb"))
	assert.Contains(t, lines[32], "number")
}

func TestWriteDictionary_Yaml(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDictionary(&buf, true))

	var docs []columnDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 32)
	for i, name := range columnNames() {
		assert.Equal(t, name, docs[i].Name)
		assert.NotEmpty(t, docs[i].Help)
	}
	assert.Equal(t, "string", docs[2].Type)
	assert.Equal(t, "number", docs[3].Type)
}
