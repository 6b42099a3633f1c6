package parse

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjects(t *testing.T) {
	doc, err := Parse([]byte(`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`))
	require.NoError(t, err)

	assert.Equal(t, FormatObjects, doc.Format)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "a", doc.Rows[0]["name"])
	assert.Equal(t, float64(2), doc.Rows[1]["id"])
}

func TestParseObjectsRejectsNonObjectArray(t *testing.T) {
	_, err := Parse([]byte(`[1, 2, 3]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON parse error")
}

func TestParseTable(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "comma", content: "id,name,score\n1,alice,10\n2,bob,20\n"},
		{name: "tab", content: "id\tname\tscore\n1\talice\t10\n2\tbob\t20\n"},
		{name: "semicolon", content: "id;name;score\n1;alice;10\n2;bob;20\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.content))
			require.NoError(t, err)

			assert.Equal(t, FormatTable, doc.Format)
			require.Len(t, doc.Rows, 2)
			assert.Equal(t, "alice", doc.Rows[0]["name"])
			assert.Equal(t, "20", doc.Rows[1]["score"])
		})
	}
}

func TestParseTableRowFieldCountMismatch(t *testing.T) {
	_, err := Parse([]byte("id,name,score\n1,alice,10\n2,bob\n"))
	require.Error(t, err)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, 3, rowErr.Want)
	assert.Equal(t, 2, rowErr.Got)
	assert.Contains(t, err.Error(), "row 2 has 2 fields, header has 3")
}

func TestParseConfig(t *testing.T) {
	content := `
retries = 3

[pipeline]
records = 500
buffer = 5

[logging]
level = "info"
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, FormatConfig, doc.Format)
	require.Len(t, doc.Rows, 3)

	sections := map[string]map[string]any{}
	var bare map[string]any
	for _, row := range doc.Rows {
		if name, ok := row["section"].(string); ok {
			sections[name] = row
		} else {
			bare = row
		}
	}
	assert.Equal(t, int64(500), sections["pipeline"]["records"])
	assert.Equal(t, "info", sections["logging"]["level"])
	assert.Equal(t, int64(3), bare["retries"])
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse([]byte("just some prose with no structure"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseEmptyContent(t *testing.T) {
	_, err := Parse([]byte("   \n  "))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseGzipTransparently(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`[{"id": 1}]`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FormatObjects, doc.Format)
	require.Len(t, doc.Rows, 1)
}

func TestParseRejectsNonUTF8(t *testing.T) {
	// UTF-16LE encoded "id,name" with BOM.
	content := []byte{0xff, 0xfe, 'i', 0, 'd', 0, ',', 0, 'n', 0, 'a', 0, 'm', 0, 'e', 0}
	_, err := Parse(content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid UTF-8")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{name: "json array", content: `[{"a": 1}]`, want: FormatObjects},
		{name: "json object", content: `{"a": 1}`, want: FormatObjects},
		{name: "section header", content: "[main]\nkey = 1\n", want: FormatConfig},
		{name: "bare key values", content: "a = 1\nb = 2\n", want: FormatConfig},
		{name: "csv", content: "a,b\n1,2\n", want: FormatTable},
		{name: "prose", content: "hello world", want: FormatUnknown},
		{name: "empty", content: "", want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify([]byte(tt.content)))
		})
	}
}
