package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("\xEF\xBB\xBFbatch_id,yield_percent\nPARA-250101-001,98.50"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, "batch_id", parser.Headers()[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader(""))
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Invalid UTF-8 returns error", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("a,b\n\xff\xfe,1"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewParser(strings.NewReader("a;b\n1;2"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"a", "b"}, parser.Headers())
	})
}

func TestReadRows(t *testing.T) {
	t.Run("Rows map to headers", func(t *testing.T) {
		data := "complaint_id,description\nCMP-250105-001,\"Broken tablets, chipped\"\nCMP-250106-001,Headache\n"
		parser, err := ParseBytes([]byte(data), WithTrimSpace(true))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		rows, err := parser.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Broken tablets, chipped", rows[0].Get("description"))
		assert.Equal(t, 3, rows[1].LineNumber)
		assert.Equal(t, 2, parser.TotalRows())
	})

	t.Run("Header only file has no rows", func(t *testing.T) {
		parser, err := ParseBytes([]byte("capa_id,source\n"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		_, err = parser.ReadRow()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("Short row is an error", func(t *testing.T) {
		parser, err := ParseBytes([]byte("a,b\n1\n"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		_, err = parser.ReadRow()
		assert.Error(t, err)
	})

	t.Run("Missing headers are reported", func(t *testing.T) {
		parser, err := ParseBytes([]byte("a,b\n1,2\n"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"c"}, parser.ValidateHeaders([]string{"a", "c"}))
	})
}
