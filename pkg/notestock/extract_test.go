package notestock

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeArchive builds a zip holding one tar whose entries have the given contents.
func makeArchive(t *testing.T, entries ...string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for i, entry := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     filepath.Join("notestock", "part"+string(rune('a'+i))+".json"),
			Mode:     0o644,
			Size:     int64(len(entry)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(entry))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, err := zw.Create("notestock.tar")
	require.NoError(t, err)
	_, err = w.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return zipBuf.Bytes()
}

func TestParse(t *testing.T) {
	archive := makeArchive(t,
		`[{"content":"<p>おはよう世界</p>"},`+"\n",
		`{"content":"<p>first line<br>second   line</p><p>third</p>"},`+"\n",
		`{"content":"<p>see <a href=\"https://example.com\">https://example.com</a> now</p>"}]`+"\n",
	)

	texts, err := Parse(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"おはよう世界",
		"first line",
		"second line",
		"third",
		"see now",
	}, texts)
}

func TestParseFiltersAndStripping(t *testing.T) {
	archive := makeArchive(t, `[
{"content":"<p>今日の問題 #クイズMondo</p>"},
{"content":"<p>play https://puzzlega.me/ today</p>"},
{"content":"<p>keep this</p><pre>drop\nthis</pre><p>and <code>x := 1</code>this</p>"},
{"content":"<blockquote><p>quoted</p></blockquote><p>reply</p>"},
{"content":"<p>comment<br>RE: someone else's post</p>"},
{"content":"<p>full　width　　spaces &amp; entities</p>"},
{"id":"boost-without-content"},
{"content":""}
]`)

	texts, err := Parse(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"keep this",
		"and this",
		"reply",
		"comment",
		"full width spaces & entities",
	}, texts)
}

func TestParseTrimsLinesBeforeQuoteCheck(t *testing.T) {
	archive := makeArchive(t, `[{"content":"<p>first<br>  RE: indented quote<br> second </p>"}]`)

	texts, err := Parse(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, texts)
}

func TestParseNewlineDelimited(t *testing.T) {
	archive := makeArchive(t, "{\"content\":\"<p>one</p>\"}\n{\"content\":\"<p>two</p>\"}\n")
	texts, err := Parse(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)
}

func TestParseCustomSpamMarkers(t *testing.T) {
	archive := makeArchive(t, `[{"content":"<p>buy now</p>"},{"content":"<p>hello</p>"}]`)
	texts, err := NewExtractor(WithSpamMarkers("buy")).Parse(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, texts)
}

func TestParseMalformed(t *testing.T) {
	twoFiles := func() []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		for _, name := range []string{"a.tar", "b.tar"} {
			_, err := zw.Create(name)
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())
		return buf.Bytes()
	}

	notTar := func() []byte {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("a.tar")
		require.NoError(t, err)
		_, err = w.Write(bytes.Repeat([]byte("x"), 1024))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		return buf.Bytes()
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{"Not a zip", []byte("definitely not a zip")},
		{"Empty input", nil},
		{"Two files in zip", twoFiles()},
		{"Entry is not a tar", notTar()},
		{"Invalid JSON", makeArchive(t, `[{"content": "unterminated]`)},
		{"Garbage between posts", makeArchive(t, `[{"content":"a"} nope {"content":"b"}]`)},
		{"Wrong content type", makeArchive(t, `[{"content": 42}]`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.data)
			assert.ErrorIs(t, err, ErrArchive)
		})
	}
}

func TestParseGlob(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "2024", "06")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zip"), makeArchive(t, `[{"content":"<p>alpha</p>"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.zip"), makeArchive(t, `[{"content":"<p>beta</p>"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "notes.txt"), []byte("ignored"), 0o644))

	texts, err := NewExtractor().ParseGlob(filepath.Join(dir, "**", "*.zip"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, texts)

	_, err = NewExtractor().ParseFile(filepath.Join(dir, "missing.zip"))
	assert.ErrorIs(t, err, ErrArchive)
}
