package markov

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeGolden(t *testing.T) {
	m := buildModel(t, "a b")
	expected := []byte{
		0x03,                               // three sources
		0x00, 0x01, 0x01, 0x01, 'a', 0x01, // <SOC> -> a x1
		0x01, 0x01, 'a', 0x01, 0x01, 0x01, 'b', 0x01, // a -> b x1
		0x01, 0x01, 'b', 0x01, 0x02, 0x01, // b -> <EOC> x1
	}
	assert.Equal(t, expected, Encode(m))
	assert.Equal(t, []byte{0x00}, Encode(nil))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		texts []string
	}{
		{"Single text", []string{"one fish two fish"}},
		{"Several texts", []string{"one fish two fish", "red fish blue fish", "", "fish"}},
		{"Japanese", []string{"今日 は 良い 天気", "明日 は 雨"}},
		{"Repeated", []string{"a a a a", "a a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := buildModel(t, tc.texts...)
			decoded, err := Decode(Encode(m))
			require.NoError(t, err)
			assert.True(t, m.Equal(decoded))
			assert.Equal(t, m.Stats(), decoded.Stats())
		})
	}
}

func TestEncodeIsStable(t *testing.T) {
	first := buildModel(t, "a b c", "c b a", "b")
	second := buildModel(t, "b", "c b a", "a b c")
	require.True(t, first.Equal(second))
	assert.Equal(t, Encode(first), Encode(second))
	assert.Equal(t, Encode(first), Encode(first.Clone()))
}

func TestEncodeLargeCounts(t *testing.T) {
	a := NewWord("a")
	m, err := ModelFromTransitions(map[Token]map[Token]uint32{
		StartToken: {a: ^uint32(0)},
		a:          {EndToken: 300},
	})
	require.NoError(t, err)
	decoded, err := Decode(Encode(m))
	require.NoError(t, err)
	assert.True(t, m.Equal(decoded))
}

func TestDecodeRejectsTruncation(t *testing.T) {
	data := Encode(buildModel(t, "one fish two fish", "red fish blue fish"))
	for i := 0; i < len(data); i++ {
		_, err := Decode(data[:i])
		assert.ErrorIs(t, err, ErrDecode, "prefix of %d bytes", i)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid := Encode(buildModel(t, "a b"))

	testCases := []struct {
		name string
		data []byte
	}{
		{"Trailing bytes", append(bytes.Clone(valid), 0x00)},
		{"Unknown tag", []byte{0x01, 0x07, 0x01, 0x02, 0x01}},
		{"Empty word", []byte{0x01, 0x01, 0x00, 0x01, 0x02, 0x01}},
		{"Invalid UTF-8 word", []byte{0x01, 0x01, 0x01, 0xff, 0x01, 0x02, 0x01}},
		{"No successors", []byte{0x01, 0x00, 0x00}},
		{"Zero count", []byte{0x01, 0x00, 0x01, 0x02, 0x00}},
		{"Count overflows uint32", []byte{0x01, 0x00, 0x01, 0x02, 0x80, 0x80, 0x80, 0x80, 0x10}},
		{"Duplicate source", []byte{0x02, 0x00, 0x01, 0x02, 0x01, 0x00, 0x01, 0x02, 0x01}},
		{"Duplicate successor", []byte{0x01, 0x00, 0x02, 0x02, 0x01, 0x02, 0x01}},
		{"Huge source count", []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
		{"Non-canonical varint", []byte{0x81, 0x00, 0x00, 0x01, 0x02, 0x01}},
		{"Empty input", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Decode(tc.data)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Nil(t, m)
		})
	}
}

func TestUnmarshalBinaryIsAtomic(t *testing.T) {
	loaded := buildModel(t, "keep me")
	snapshot := loaded.Clone()

	data := Encode(buildModel(t, "replace me please"))
	err := loaded.UnmarshalBinary(data[:len(data)-1])
	require.ErrorIs(t, err, ErrDecode)
	assert.True(t, snapshot.Equal(loaded), "a failed decode must not touch the loaded model")

	require.NoError(t, loaded.UnmarshalBinary(data))
	assert.True(t, loaded.Has(NewWord("please")))

	out, err := loaded.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestWriteTo(t *testing.T) {
	m := buildModel(t, "a b")
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, Encode(m), buf.Bytes())
}

func TestEncodeDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")
	m := buildModel(t, "one fish two fish", "red fish blue fish")

	require.NoError(t, EncodeFile(m, path))
	decoded, err := DecodeFile(path)
	require.NoError(t, err)
	assert.True(t, m.Equal(decoded))

	t.Run("Missing file is an IO error", func(t *testing.T) {
		_, err := DecodeFile(filepath.Join(dir, "missing.bin"))
		assert.ErrorIs(t, err, ErrIO)
		assert.NotErrorIs(t, err, ErrDecode)
	})

	t.Run("Corrupt file is a decode error", func(t *testing.T) {
		corrupt := filepath.Join(dir, "corrupt.bin")
		data := Encode(m)
		require.NoError(t, os.WriteFile(corrupt, data[:len(data)/2], 0o644))
		_, err := DecodeFile(corrupt)
		assert.ErrorIs(t, err, ErrDecode)
		assert.NotErrorIs(t, err, ErrIO)
	})

	t.Run("Empty file is a decode error", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.bin")
		require.NoError(t, os.WriteFile(empty, nil, 0o644))
		_, err := DecodeFile(empty)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("Encoded bytes are written as is", func(t *testing.T) {
		data := Encode(m)
		written := filepath.Join(dir, "written.bin")
		n, err := WriteEncodedFile(data, written)
		require.NoError(t, err)
		assert.Equal(t, len(data), n)

		onDisk, err := os.ReadFile(written)
		require.NoError(t, err)
		assert.Equal(t, data, onDisk)
	})

	t.Run("Unwritable path is an IO error", func(t *testing.T) {
		err := EncodeFile(m, filepath.Join(dir, "no", "such", "dir", "model.bin"))
		assert.ErrorIs(t, err, ErrIO)
	})
}

func BenchmarkDecode(b *testing.B) {
	builder := NewBuilder(NewDefaultTokenizer())
	builder.LearnMany(createBenchmarkCorpus())
	data := Encode(builder.Build())

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
