// Package script is the entry point for splitting SQL scripts. A Parser
// owns the script source and the delimiter configuration and hands out
// statements by index, by cursor offset or through a forward iterator.
package script

import (
	"io"
	"iter"
	"sort"
	"strings"
	"unicode"

	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/dialect"
	apperrors "github.com/cybertec-postgresql/sqlscript/internal/errors"
	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
	"github.com/cybertec-postgresql/sqlscript/internal/logger"
	"github.com/cybertec-postgresql/sqlscript/internal/splitter"
)

// DefaultMaxInMemorySize is the largest file loaded into memory; bigger
// files are streamed.
const DefaultMaxInMemorySize = 50 << 20

// Command is a statement of the script.
type Command = splitter.Command

// state of a Parser. Only configuration calls move it backwards.
type state int

const (
	unconfigured state = iota // no source
	unparsed                  // source set, nothing split yet
	parsed                    // all commands materialized
	streaming                 // a live iterator reads the source
)

/*
 * Parser splits one script.
 *
 * In-memory scripts are split eagerly on first access and the commands are
 * cached until a setter changes the configuration. Sources too big for
 * memory are only readable through the iterator, or materialized by
 * Command() with the statement text captured while streaming.
 *
 * A Parser is not safe for concurrent use.
 */
type Parser struct {
	spec      dialect.Spec
	def       delimiter.Delimiter
	alt       delimiter.Delimiter
	emptyLine bool
	leadingWS bool
	escapes   *bool
	dynamic   *bool
	maxMemory int64
	log       *logger.Logger

	src   Source
	text  string // whole script when held in memory
	inMem bool
	dec   decoder

	state       state
	cmds        []*Command
	streamCount int // commands seen by a completed stream, -1 if unknown
	lineStarts  []int

	// iterator
	iterating bool
	iterPos   int
	rc        io.ReadCloser
	sp        *splitter.Splitter
	streamed  int
}

// Option configures a Parser.
type Option func(*Parser)

// WithDelimiters sets the default and the alternate delimiter.
func WithDelimiters(def, alt delimiter.Delimiter) Option {
	return func(p *Parser) { p.def, p.alt = def, alt }
}

// WithEmptyLineIsDelimiter closes statements at empty lines.
func WithEmptyLineIsDelimiter(on bool) Option {
	return func(p *Parser) { p.emptyLine = on }
}

// WithReturnLeadingWhitespace keeps leading whitespace in statement text.
func WithReturnLeadingWhitespace(on bool) Option {
	return func(p *Parser) { p.leadingWS = on }
}

// WithCheckEscapedQuotes overrides whether a backslash escapes a quote.
func WithCheckEscapedQuotes(on bool) Option {
	return func(p *Parser) { p.escapes = &on }
}

// WithDynamicDelimiter overrides whether DELIMITER directives are honored.
func WithDynamicDelimiter(on bool) Option {
	return func(p *Parser) { p.dynamic = &on }
}

// WithMaxInMemorySize sets the threshold between loading and streaming
// files.
func WithMaxInMemorySize(n int64) Option {
	return func(p *Parser) { p.maxMemory = n }
}

// WithLogger sets the logger for parse and stream lifecycle messages.
func WithLogger(l *logger.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// NewParser returns a parser for dialect d without a script.
func NewParser(d dialect.Dialect, opts ...Option) *Parser {
	spec := dialect.Lookup(d)
	p := &Parser{
		spec:        spec,
		def:         spec.DefaultDelimiter,
		alt:         spec.DefaultAlternate,
		maxMemory:   DefaultMaxInMemorySize,
		log:         logger.Default(),
		streamCount: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewParserForDB returns a parser for the dialect of a database identifier.
func NewParserForDB(dbid string, opts ...Option) *Parser {
	return NewParser(dialect.FromDBID(dbid), opts...)
}

// Parse is a shorthand for a parser over an in-memory script.
func Parse(text string, d dialect.Dialect, def, alt delimiter.Delimiter, opts ...Option) *Parser {
	p := NewParser(d, append([]Option{WithDelimiters(def, alt)}, opts...)...)
	p.SetScript(text)
	return p
}

// Dialect returns the dialect the parser was created for.
func (p *Parser) Dialect() dialect.Dialect { return p.spec.Dialect }

// Delimiters returns the configured default and alternate delimiter.
func (p *Parser) Delimiters() (def, alt delimiter.Delimiter) { return p.def, p.alt }

// SourceName returns the name of the current source.
func (p *Parser) SourceName() string {
	if p.src == nil {
		return ""
	}
	return p.src.Name()
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SetScript makes text the script.
func (p *Parser) SetScript(text string) {
	p.setSource(NewStringSource(text), text, true, decoder{})
}

// SetFile makes the file at path the script. Files up to the in-memory
// threshold are loaded, bigger ones are streamed. The encoding name is
// resolved through the WHATWG index; empty means UTF-8.
func (p *Parser) SetFile(path, encoding string) error {
	fs, err := NewFileSource(path, encoding)
	if err != nil {
		return err
	}
	dec := decoder{enc: fs.Encoding()}
	if fs.Len() <= p.maxMemory {
		text, err := fs.Load()
		if err != nil {
			return err
		}
		p.log.Debug("loaded %s (%d bytes)", path, len(text))
		p.setSource(fs, text, true, dec)
		return nil
	}
	p.log.Debug("streaming %s (%d bytes)", path, fs.Len())
	p.setSource(fs, "", false, dec)
	return nil
}

// SetSource makes src the script. Sources that hold their text in memory
// are split eagerly, all others are streamed.
func (p *Parser) SetSource(src Source) {
	text, ok := src.Text()
	p.setSource(src, text, ok, decoder{})
}

func (p *Parser) setSource(src Source, text string, inMem bool, dec decoder) {
	p.closeStream()
	p.src = src
	p.text = text
	p.inMem = inMem
	p.dec = dec
	p.lineStarts = nil
	p.streamCount = -1
	p.cmds = nil
	p.iterating = false
	p.state = unparsed
}

// SetDelimiters replaces the default and the alternate delimiter.
func (p *Parser) SetDelimiters(def, alt delimiter.Delimiter) {
	p.def, p.alt = def, alt
	p.invalidate()
}

// SetEmptyLineIsDelimiter switches empty-line delimiters.
func (p *Parser) SetEmptyLineIsDelimiter(on bool) {
	p.emptyLine = on
	p.invalidate()
}

// SetReturnLeadingWhitespace switches leading whitespace in statement text.
func (p *Parser) SetReturnLeadingWhitespace(on bool) {
	p.leadingWS = on
	p.invalidate()
}

// SetCheckEscapedQuotes switches backslash escapes in string literals.
func (p *Parser) SetCheckEscapedQuotes(on bool) {
	p.escapes = &on
	p.invalidate()
}

// SetDynamicDelimiter switches DELIMITER and SET TERM directives.
func (p *Parser) SetDynamicDelimiter(on bool) {
	p.dynamic = &on
	p.invalidate()
}

// invalidate drops cached commands and any live stream; the source stays.
func (p *Parser) invalidate() {
	p.closeStream()
	p.cmds = nil
	p.streamCount = -1
	p.iterating = false
	if p.state != unconfigured {
		p.state = unparsed
	}
}

// ---------------------------------------------------------------------------
// Splitting
// ---------------------------------------------------------------------------

// Rules returns the lexical rules splitting uses, with the escaped-quote
// setting applied.
func (p *Parser) Rules() *lexer.Rules { return p.rules() }

func (p *Parser) rules() *lexer.Rules {
	if p.escapes != nil {
		return p.spec.Rules.WithBackslashEscapes(*p.escapes)
	}
	return p.spec.Rules
}

func (p *Parser) dynamicDelimiter() bool {
	if p.dynamic != nil {
		return *p.dynamic
	}
	return p.spec.DynamicDelimiter
}

// newPolicy builds the delimiter policy with def as the active default.
func (p *Parser) newPolicy(def delimiter.Delimiter) delimiter.Policy {
	switch {
	case p.dynamicDelimiter():
		return delimiter.NewDynamic(def, p.alt)
	case p.spec.DynamicDelimiter, p.spec.NewPolicy == nil:
		// dynamic dialect with directives switched off, or no policy at all
		return delimiter.NewFixed(def)
	default:
		return p.spec.NewPolicy(def, p.alt)
	}
}

// policy returns the policy for a fresh split. For in-memory scripts with a
// policy that does not mix delimiters, a script ending in the alternate
// delimiter makes the alternate the default for the whole script.
func (p *Parser) policy() delimiter.Policy {
	pol := p.newPolicy(p.def)
	if p.inMem && !pol.SupportsMixedDelimiters() && endsWithDelimiter(p.text, p.alt) {
		p.log.Debug("script ends with %q, using it as the delimiter", p.alt.Text)
		return p.newPolicy(p.alt)
	}
	return pol
}

// endsWithDelimiter reports whether the last non-blank text of script is d.
func endsWithDelimiter(script string, d delimiter.Delimiter) bool {
	if d.IsEmpty() {
		return false
	}
	s := strings.TrimRightFunc(script, unicode.IsSpace)
	if len(s) < len(d.Text) {
		return false
	}
	tail := s[len(s)-len(d.Text):]
	if d.IsWord() {
		if !strings.EqualFold(tail, d.Text) {
			return false
		}
	} else if tail != d.Text {
		return false
	}
	before := s[:len(s)-len(d.Text)]
	if d.IsWord() && before != "" {
		if c := before[len(before)-1]; c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) {
			return false
		}
	}
	if d.SingleLine {
		line := before[strings.LastIndexByte(before, '\n')+1:]
		return strings.TrimSpace(line) == ""
	}
	return true
}

func (p *Parser) newSplitter(r io.Reader) *splitter.Splitter {
	var sc *lexer.Scanner
	if p.inMem {
		sc = lexer.NewScanner(p.text, p.rules())
	} else {
		sc = lexer.NewReaderScanner(r, p.rules())
	}
	return splitter.New(sc, p.policy(), splitter.Options{
		EmptyLineIsDelimiter:    p.emptyLine,
		ReturnLeadingWhitespace: p.leadingWS,
		CaptureText:             !p.inMem,
	})
}

// ensureParsed materializes all commands.
func (p *Parser) ensureParsed() error {
	switch p.state {
	case unconfigured:
		return apperrors.NewConfigError("parser", "no script set", nil)
	case parsed:
		return nil
	case streaming:
		p.closeStream()
		p.iterating = false
	}

	var r io.ReadCloser
	if !p.inMem {
		var err error
		if r, err = p.src.Open(); err != nil {
			return err
		}
		defer r.Close()
	}
	cmds, err := p.newSplitter(r).All()
	if err != nil {
		p.state = unparsed
		return apperrors.NewConfigError(p.src.Name(), "cannot read script", err)
	}
	p.cmds = cmds
	p.streamCount = len(cmds)
	p.state = parsed
	p.log.Debug("split %s into %d statements", p.src.Name(), len(cmds))
	return nil
}

// Err splits the script if needed and returns the error that stopped it.
func (p *Parser) Err() error { return p.ensureParsed() }

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

// Count returns the number of statements. In-memory scripts are split on
// demand; a streamed script returns -1 until it has been fully read.
func (p *Parser) Count() int {
	if p.state == unconfigured {
		return 0
	}
	if !p.inMem && p.state != parsed {
		return p.streamCount
	}
	if err := p.ensureParsed(); err != nil {
		return -1
	}
	return len(p.cmds)
}

// Commands returns all statements.
func (p *Parser) Commands() ([]*Command, error) {
	if err := p.ensureParsed(); err != nil {
		return nil, err
	}
	return p.cmds, nil
}

// Command returns statement i. Streamed scripts are materialized first.
func (p *Parser) Command(i int) (*Command, bool) {
	if err := p.ensureParsed(); err != nil {
		return nil, false
	}
	if i < 0 || i >= len(p.cmds) {
		return nil, false
	}
	return p.cmds[i], true
}

// MustCommand is like Command but returns ErrNotFound for a bad index.
func (p *Parser) MustCommand(i int) (*Command, error) {
	if err := p.ensureParsed(); err != nil {
		return nil, err
	}
	cmd, ok := p.Command(i)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cmd, nil
}

// CommandText returns the text of statement i, decoded to UTF-8. With
// rightTrim trailing whitespace is removed.
func (p *Parser) CommandText(i int, rightTrim bool) (string, bool) {
	cmd, ok := p.Command(i)
	if !ok {
		return "", false
	}
	return p.TextOf(cmd, rightTrim), true
}

// TextOf returns the text of a command produced by this parser, also one
// returned by the iterator.
func (p *Parser) TextOf(cmd *Command, rightTrim bool) string {
	text := cmd.Text
	if p.inMem {
		from := cmd.Start
		if p.leadingWS {
			from = cmd.WhitespaceStart
		}
		text = p.text[from:cmd.End]
	}
	text = p.dec.decode(text)
	if rightTrim {
		text = strings.TrimRightFunc(text, unicode.IsSpace)
	}
	return text
}

// DelimiterUsed returns the delimiter that closed statement i.
func (p *Parser) DelimiterUsed(i int) (delimiter.Delimiter, bool) {
	cmd, ok := p.Command(i)
	if !ok {
		return delimiter.None, false
	}
	return cmd.Delimiter, true
}

/*
 * IndexAt maps a byte offset to the statement under it.
 *
 * Each statement owns its leading whitespace, its text, its delimiter, and
 * the blanks after the delimiter up to and including the first line break.
 * Offsets past the last statement map to the last one. Returns -1 only when
 * the script has no statements.
 */
func (p *Parser) IndexAt(offset int) int {
	if err := p.ensureParsed(); err != nil || len(p.cmds) == 0 {
		return -1
	}
	i := sort.Search(len(p.cmds), func(i int) bool {
		return offset < p.cmds[i].OwnedEnd
	})
	if i == len(p.cmds) {
		return len(p.cmds) - 1
	}
	return i
}

// LineOf returns the 1-based line of offset in an in-memory script, or 0.
func (p *Parser) LineOf(offset int) int {
	if !p.inMem || offset < 0 || offset > len(p.text) {
		return 0
	}
	if p.lineStarts == nil {
		p.lineStarts = []int{0}
		for i := 0; i < len(p.text); i++ {
			if p.text[i] == '\n' {
				p.lineStarts = append(p.lineStarts, i+1)
			}
		}
	}
	return sort.SearchInts(p.lineStarts, offset+1)
}

// ---------------------------------------------------------------------------
// Iteration
// ---------------------------------------------------------------------------

// StartIterator positions the iterator before the first statement. For an
// in-memory script it reuses the cached commands; for a streamed script it
// opens the source again.
func (p *Parser) StartIterator() error {
	p.closeStream()
	p.iterating = false
	if p.state == unconfigured {
		return apperrors.NewConfigError("parser", "no script set", nil)
	}
	if p.inMem || p.state == parsed {
		if err := p.ensureParsed(); err != nil {
			return err
		}
		p.iterPos = 0
		p.iterating = true
		return nil
	}
	rc, err := p.src.Open()
	if err != nil {
		return err
	}
	p.rc = rc
	p.sp = p.newSplitter(rc)
	p.streamed = 0
	p.state = streaming
	p.iterating = true
	p.log.Debug("streaming %s", p.src.Name())
	return nil
}

// Next returns the next statement, or io.EOF after the last one. The
// iterator is started on first use. A streamed source is closed when the
// iterator reaches the end or fails.
func (p *Parser) Next() (*Command, error) {
	if !p.iterating {
		if err := p.StartIterator(); err != nil {
			return nil, err
		}
	}
	if p.state != streaming {
		if p.iterPos >= len(p.cmds) {
			return nil, io.EOF
		}
		cmd := p.cmds[p.iterPos]
		p.iterPos++
		return cmd, nil
	}
	if p.sp == nil {
		return nil, io.EOF
	}
	cmd, err := p.sp.Next()
	switch {
	case err == io.EOF:
		p.streamCount = p.streamed
		p.closeStream()
		p.log.Debug("stream of %s finished after %d statements", p.src.Name(), p.streamed)
		return nil, io.EOF
	case err != nil:
		p.closeStream()
		return nil, apperrors.NewConfigError(p.src.Name(), "cannot read script", err)
	}
	p.streamed++
	return cmd, nil
}

// Done ends the iteration and releases a streamed source.
func (p *Parser) Done() error {
	p.iterating = false
	return p.closeStream()
}

// Close is Done.
func (p *Parser) Close() error { return p.Done() }

// All iterates the statements from the first one. Iteration errors are
// yielded once, after which the sequence stops.
func (p *Parser) All() iter.Seq2[*Command, error] {
	return func(yield func(*Command, error) bool) {
		if err := p.StartIterator(); err != nil {
			yield(nil, err)
			return
		}
		defer p.Done()
		for {
			cmd, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(cmd, err) || err != nil {
				return
			}
		}
	}
}

// closeStream releases a live stream.
func (p *Parser) closeStream() error {
	var err error
	if p.rc != nil {
		err = p.rc.Close()
		p.rc = nil
	}
	p.sp = nil
	if p.state == streaming {
		p.state = unparsed
	}
	return err
}
