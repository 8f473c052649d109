package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Titles []string `json:"titles"`
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, doc{Titles: []string{"milk"}}))
	assert.Equal(t, "{\n  \"titles\": [\n    \"milk\"\n  ]\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_UnencodableValue(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `{"error":`)
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, WriteLine(&out, doc{Titles: []string{"a"}}))
	require.NoError(t, WriteLine(&out, doc{Titles: []string{"b"}}))
	assert.Equal(t, "{\"titles\":[\"a\"]}\n{\"titles\":[\"b\"]}\n", out.String())
}

func TestFileReader(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"titles":["x","y"]}`), 0o644))

		fr := &FileReader[doc]{path: path}
		got, err := fr.Read(strings.NewReader(`{"titles":["ignored"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got.Titles)
	})

	t.Run("from stdin", func(t *testing.T) {
		fr := &FileReader[doc]{}
		got, err := fr.Read(strings.NewReader(`{"titles":["piped"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"piped"}, got.Titles)
	})

	t.Run("dash reads stdin", func(t *testing.T) {
		fr := &FileReader[doc]{path: "-"}
		got, err := fr.Read(strings.NewReader(`{"titles":["dash"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"dash"}, got.Titles)
	})

	t.Run("missing file", func(t *testing.T) {
		fr := &FileReader[doc]{path: filepath.Join(t.TempDir(), "nope.json")}
		_, err := fr.Read(nil)
		assert.ErrorContains(t, err, "open file")
	})

	t.Run("no reader", func(t *testing.T) {
		fr := &FileReader[doc]{}
		_, err := fr.Read(nil)
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("bad json", func(t *testing.T) {
		fr := &FileReader[doc]{}
		_, err := fr.Read(strings.NewReader("{"))
		assert.ErrorContains(t, err, "decode JSON")
	})
}
