package markov

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
	"github.com/natefinch/atomic"
	"google.golang.org/protobuf/encoding/protowire"
)

// Binary model format. Every integer is an unsigned LEB128 varint, so the
// encoding does not depend on host byte order:
//
//	model := uvarint(sources) { token uvarint(successors) { token uvarint(count) } }
//	token := uvarint(tagStart) | uvarint(tagEnd) | uvarint(tagWord) uvarint(len) utf8-bytes
//
// Sources and successors are written in token order (<SOC>, words by bytes,
// <EOC>), so the same model always encodes to the same bytes. There is no
// header or version; any missing or trailing byte is a decode error.
const (
	tagStart = 0
	tagWord  = 1
	tagEnd   = 2
)

// Encode serializes the model into the binary model format. A nil model
// encodes as an empty table.
func Encode(m *Model) []byte {
	buf := make([]byte, 0, 64)
	sources := m.Sources()
	buf = protowire.AppendVarint(buf, uint64(len(sources)))
	for _, from := range sources {
		buf = appendToken(buf, from)
		next := m.Successors(from)
		buf = protowire.AppendVarint(buf, uint64(len(next)))
		for _, link := range next {
			buf = appendToken(buf, link.Item)
			buf = protowire.AppendVarint(buf, uint64(link.Weight))
		}
	}
	return buf
}

func appendToken(buf []byte, t Token) []byte {
	switch t.kind {
	case KindStart:
		return protowire.AppendVarint(buf, tagStart)
	case KindEnd:
		return protowire.AppendVarint(buf, tagEnd)
	default:
		buf = protowire.AppendVarint(buf, tagWord)
		return protowire.AppendString(buf, t.text)
	}
}

// Decode parses a model produced by Encode. Any malformed, truncated or
// over-long input yields an error wrapping ErrDecode and no model.
func Decode(data []byte) (*Model, error) {
	d := decoder{buf: data}

	sources, err := d.count("source count")
	if err != nil {
		return nil, err
	}
	chains := make(map[Token]map[Token]uint32, sources)
	for i := 0; i < sources; i++ {
		from, err := d.token()
		if err != nil {
			return nil, err
		}
		if _, dup := chains[from]; dup {
			return nil, d.errorf("duplicate source %q", from)
		}

		links, err := d.count("successor count")
		if err != nil {
			return nil, err
		}
		if links == 0 {
			return nil, d.errorf("source %q has no successors", from)
		}
		next := make(map[Token]uint32, links)
		for j := 0; j < links; j++ {
			to, err := d.token()
			if err != nil {
				return nil, err
			}
			if _, dup := next[to]; dup {
				return nil, d.errorf("duplicate successor %q after %q", to, from)
			}
			freq, err := d.uvarint()
			if err != nil {
				return nil, err
			}
			if freq == 0 || freq > math.MaxUint32 {
				return nil, d.errorf("invalid count %d for %q -> %q", freq, from, to)
			}
			next[to] = uint32(freq)
		}
		chains[from] = next
	}

	if d.off != len(d.buf) {
		return nil, d.errorf("%d trailing bytes", len(d.buf)-d.off)
	}
	return &Model{chains: chains}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Model) MarshalBinary() ([]byte, error) {
	return Encode(m), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error the
// receiver keeps its previous contents.
func (m *Model) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	m.chains = decoded.chains
	return nil
}

// WriteTo writes the encoded model to w.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(Encode(m))
	return int64(n), err
}

// EncodeFile atomically replaces the file at path with the encoded model.
// Storage failures wrap ErrIO.
func EncodeFile(m *Model, path string) error {
	_, err := WriteEncodedFile(Encode(m), path)
	return err
}

// WriteEncodedFile atomically replaces the file at path with data, the
// output of Encode, and returns the number of bytes written. Storage
// failures wrap ErrIO.
func WriteEncodedFile(data []byte, path string) (int, error) {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("%w: failed to write %s: %w", ErrIO, path, err)
	}
	return len(data), nil
}

// DecodeFile reads a model written by EncodeFile. Failures to open or map
// the file wrap ErrIO; invalid contents wrap ErrDecode.
func DecodeFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrIO, path, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIO, path, err)
	}
	if info.Size() == 0 {
		// An empty file cannot be mapped, and is not a valid model either.
		return Decode(nil)
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to map %s: %w", ErrIO, path, err)
	}
	defer func(data mmap.MMap) {
		_ = data.Unmap()
	}(data)

	// Decode copies every word out of the mapping.
	return Decode(data)
}

// decoder is a cursor over an encoded model.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrDecode, fmt.Sprintf(format, args...), d.off)
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		if errors.Is(protowire.ParseError(n), io.ErrUnexpectedEOF) {
			return 0, d.errorf("unexpected end of data")
		}
		return 0, d.errorf("invalid varint: %v", protowire.ParseError(n))
	}
	if n != protowire.SizeVarint(v) {
		return 0, d.errorf("non-canonical varint")
	}
	d.off += n
	return v, nil
}

// count reads an element count and rejects counts that could not possibly
// fit in the remaining input, so a corrupt header cannot force a huge
// allocation.
func (d *decoder) count(what string) (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(d.buf)-d.off) {
		return 0, d.errorf("%s %d exceeds remaining input", what, v)
	}
	return int(v), nil
}

func (d *decoder) token() (Token, error) {
	tag, err := d.uvarint()
	if err != nil {
		return Token{}, err
	}
	switch tag {
	case tagStart:
		return StartToken, nil
	case tagEnd:
		return EndToken, nil
	case tagWord:
		size, err := d.count("word length")
		if err != nil {
			return Token{}, err
		}
		if size == 0 {
			return Token{}, d.errorf("empty word")
		}
		raw := d.buf[d.off : d.off+size]
		if !utf8.Valid(raw) {
			return Token{}, d.errorf("word is not valid UTF-8")
		}
		d.off += size
		return NewWord(string(raw)), nil
	default:
		return Token{}, d.errorf("unknown token tag %d", tag)
	}
}
