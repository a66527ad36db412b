package notestock

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yargevad/filepathx"
)

// ErrArchive is returned when an export archive cannot be read or parsed.
var ErrArchive = errors.New("notestock: malformed archive")

// DefaultSpamMarkers are substrings identifying automated posts that should
// never be learned.
var DefaultSpamMarkers = []string{
	"#クイズMondo",
	"https://puzzlega.me/",
}

// Post is a single exported post. Only the content is used.
type Post struct {
	Content *string `json:"content"`
}

// Extractor turns export archives into plain-text lines.
// An Extractor is safe for concurrent use once configured.
type Extractor struct {
	spamMarkers []string
	logger      *slog.Logger
}

// Option is a function that configures an Extractor.
type Option func(*Extractor)

// WithSpamMarkers replaces the list of substrings that mark a post as spam.
// Default: DefaultSpamMarkers
func WithSpamMarkers(markers ...string) Option {
	return func(e *Extractor) {
		e.spamMarkers = markers
	}
}

// WithLogger sets the logger for the Extractor. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor with default settings, which can be
// overridden by providing one or more Option functions.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		spamMarkers: DefaultSpamMarkers,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse extracts the text lines of every post in an export archive using the
// default Extractor.
func Parse(data []byte) ([]string, error) {
	return NewExtractor().Parse(data)
}

// Parse extracts the text lines of every post in an export archive.
func (e *Extractor) Parse(data []byte) ([]string, error) {
	raw, err := e.extract(data)
	if err != nil {
		return nil, err
	}
	posts, err := decodePosts(raw)
	if err != nil {
		return nil, err
	}

	var texts []string
	var spam, empty int
	for _, post := range posts {
		if post.Content == nil {
			empty++
			continue
		}
		if e.isSpam(*post.Content) {
			spam++
			continue
		}
		texts = append(texts, htmlToLines(*post.Content)...)
	}

	e.logger.Info("Archive parsed",
		slog.String("archive_size", humanize.Bytes(uint64(len(data)))),
		slog.Int("posts", len(posts)),
		slog.Int("posts_spam", spam),
		slog.Int("posts_without_content", empty),
		slog.Int("lines", len(texts)),
	)
	return texts, nil
}

// ParseFile reads and parses the archive at path.
func (e *Extractor) ParseFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrArchive, path, err)
	}
	texts, err := e.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return texts, nil
}

// ParseGlob parses every archive matching pattern, which may use ** to match
// any number of directories, and returns all their lines in file order.
func (e *Extractor) ParseGlob(pattern string) ([]string, error) {
	paths, err := filepathx.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q: %w", ErrArchive, pattern, err)
	}

	var texts []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		fileTexts, err := e.ParseFile(path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, fileTexts...)
	}
	e.logger.Info("Archives parsed",
		slog.String("pattern", pattern),
		slog.Int("archives", len(paths)),
		slog.Int("lines", len(texts)),
	)
	return texts, nil
}

func (e *Extractor) isSpam(content string) bool {
	for _, marker := range e.spamMarkers {
		if marker != "" && strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// extract unwraps the zip and concatenates the regular entries of the tar
// stream it contains.
func (e *Extractor) extract(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read zip: %w", ErrArchive, err)
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: expected exactly 1 file in zip, found %d", ErrArchive, len(zr.File))
	}

	inner, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrArchive, zr.File[0].Name, err)
	}
	defer func(inner io.ReadCloser) {
		_ = inner.Close()
	}(inner)

	var buf bytes.Buffer
	tr := tar.NewReader(inner)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read tar: %w", ErrArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if _, err = io.Copy(&buf, tr); err != nil {
			return nil, fmt.Errorf("%w: failed to read tar entry %s: %w", ErrArchive, hdr.Name, err)
		}
		e.logger.Debug("Read tar entry",
			slog.String("name", hdr.Name),
			slog.String("size", humanize.Bytes(uint64(hdr.Size))),
		)
	}
	return buf.Bytes(), nil
}

// decodePosts reads every JSON object at the top level of raw. Array
// brackets and separating commas between objects are skipped, so a single
// array, newline-delimited objects, and an array split across several files
// all decode the same way.
func decodePosts(raw []byte) ([]Post, error) {
	var posts []Post
	for off := 0; off < len(raw); {
		switch raw[off] {
		case ' ', '\t', '\r', '\n', ',', '[', ']':
			off++
			continue
		case '{':
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrArchive, raw[off], off)
		}

		dec := json.NewDecoder(bytes.NewReader(raw[off:]))
		var post Post
		if err := dec.Decode(&post); err != nil {
			return nil, fmt.Errorf("%w: invalid post at offset %d: %w", ErrArchive, off, err)
		}
		posts = append(posts, post)
		off += int(dec.InputOffset())
	}
	return posts, nil
}
