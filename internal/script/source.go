package script

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
)

// Source provides the raw bytes of a script.
type Source interface {
	// Name identifies the source in messages.
	Name() string
	// Len returns the size in bytes, or -1 when unknown.
	Len() int64
	// Open returns a fresh forward reader over the whole script.
	Open() (io.ReadCloser, error)
	// Text returns the whole script when it is held in memory.
	Text() (string, bool)
}

// StringSource is an in-memory script.
type StringSource struct {
	name string
	text string
}

// NewStringSource returns a source over text.
func NewStringSource(text string) *StringSource {
	return &StringSource{name: "<script>", text: text}
}

func (s *StringSource) Name() string         { return s.name }
func (s *StringSource) Len() int64           { return int64(len(s.text)) }
func (s *StringSource) Text() (string, bool) { return s.text, true }

func (s *StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.text)), nil
}

// FileSource is a script file. It is never held in memory by itself; the
// parser decides whether to load or stream it.
type FileSource struct {
	path string
	size int64
	enc  encoding.Encoding
}

// NewFileSource checks that path is a readable regular file and resolves the
// encoding name (empty means UTF-8). Encodings that do not keep ASCII bytes
// as they are, such as UTF-16, are rejected: the lexer works on raw bytes.
func NewFileSource(path, encodingName string) (*FileSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewConfigError(path, "cannot open script", err)
	}
	if fi.IsDir() {
		return nil, apperrors.NewConfigError(path, "script is a directory", nil)
	}
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, apperrors.NewConfigError(path, "unsupported encoding "+encodingName, err)
	}
	return &FileSource{path: path, size: fi.Size(), enc: enc}, nil
}

func (f *FileSource) Name() string         { return f.path }
func (f *FileSource) Len() int64           { return f.size }
func (f *FileSource) Text() (string, bool) { return "", false }

// Encoding returns the declared encoding, nil for UTF-8.
func (f *FileSource) Encoding() encoding.Encoding { return f.enc }

func (f *FileSource) Open() (io.ReadCloser, error) {
	r, err := os.Open(f.path)
	if err != nil {
		return nil, apperrors.NewConfigError(f.path, "cannot open script", err)
	}
	return r, nil
}

// Load reads the whole file.
func (f *FileSource) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", apperrors.NewConfigError(f.path, "cannot read script", err)
	}
	return string(b), nil
}

// asciiProbe must survive an encoder unchanged for the encoding to be usable.
const asciiProbe = "SELECT 'a' \"b\" `c` [d] -- e\n/* f */ $$;/\\#@"

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	probe, err := enc.NewEncoder().Bytes([]byte(asciiProbe))
	if err != nil || !bytes.Equal(probe, []byte(asciiProbe)) {
		return nil, errNotASCIICompatible
	}
	return enc, nil
}

var errNotASCIICompatible = errors.New("encoding does not keep ASCII bytes unchanged")

// decoder converts statement text to UTF-8.
type decoder struct {
	enc encoding.Encoding
}

func (d decoder) decode(s string) string {
	if d.enc == nil {
		return s
	}
	out, err := d.enc.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
