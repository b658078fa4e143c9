// Package splitter cuts a token stream into statements.
package splitter

import (
	"io"

	"github.com/cybertec-postgresql/sqlscript/internal/delimiter"
	"github.com/cybertec-postgresql/sqlscript/internal/lexer"
)

// Command is one statement of a script.
//
// Offsets are byte offsets into the original input:
//
//	WhitespaceStart <= Start <= End <= DelimiterEnd
//
// [WhitespaceStart, Start) is the leading whitespace, [Start, End) the
// statement, [End, DelimiterEnd) the delimiter that closed it. The next
// command's WhitespaceStart is this command's DelimiterEnd, unless a
// consumed directive lies in between. OwnedEnd extends DelimiterEnd over
// the blanks up to and including the first line break after it, the range
// a cursor lookup attributes to the command.
type Command struct {
	Index           int
	WhitespaceStart int
	Start           int
	End             int
	DelimiterEnd    int
	OwnedEnd        int
	Line            int // 1-based line of Start

	// Delimiter that closed the statement. None when it was closed by the
	// end of input, an empty line or the end of a single-line statement.
	Delimiter delimiter.Delimiter

	// Text is only set when the splitter captures text (streamed input).
	Text string

	LexicalError bool
	ErrorPos     int // offset of the first error token, valid with LexicalError
	ErrorMsg     string
}

// Len returns the length of the statement without leading whitespace and
// delimiter.
func (c *Command) Len() int { return c.End - c.Start }

// Options tune the splitter.
type Options struct {
	// EmptyLineIsDelimiter closes a statement at a line holding only
	// blanks. It is ignored when the policy mixes delimiters.
	EmptyLineIsDelimiter bool

	// ReturnLeadingWhitespace makes captured Text start at WhitespaceStart.
	ReturnLeadingWhitespace bool

	// CaptureText copies the statement text into Command.Text and releases
	// the consumed input of a streaming scanner.
	CaptureText bool
}

/*
 * Splitter drives a lexer.Scanner and a delimiter.Policy and emits Commands.
 *
 * Before each token the active delimiter is matched against the input, so
 * delimiter characters inside literals and comments are never seen. A
 * delimiter closes the pending statement; so do the end of a single-line
 * statement's line, an empty line (with EmptyLineIsDelimiter), and the end of
 * input. Statements holding only whitespace and comments are dropped without
 * an index. Error tokens flag their statement and never stop splitting.
 */
type Splitter struct {
	sc     *lexer.Scanner
	policy delimiter.Policy
	dir    delimiter.DirectiveReporter
	opts   Options
	index  int
	done   bool

	// pending statement
	wsStart    int
	start      int
	startLine  int
	hasContent bool
	singleLine bool
	lexErr     bool
	errPos     int
	errMsg     string

	// current line
	lineBlank bool
}

// New returns a splitter reading from sc. A nil policy means a fixed
// Standard delimiter; use delimiter.NewFixed for any other fixed one.
func New(sc *lexer.Scanner, policy delimiter.Policy, opts Options) *Splitter {
	if policy == nil {
		policy = delimiter.NewFixed(delimiter.Standard)
	}
	sp := &Splitter{sc: sc, policy: policy, opts: opts, lineBlank: true}
	sp.dir, _ = policy.(delimiter.DirectiveReporter)
	sp.resetPending(0)
	return sp
}

// Policy returns the delimiter policy in use.
func (sp *Splitter) Policy() delimiter.Policy { return sp.policy }

// Next returns the next statement, or io.EOF after the last one. A read
// error of a streaming scanner is returned as is.
func (sp *Splitter) Next() (*Command, error) {
	if sp.done {
		return nil, io.EOF
	}
	for {
		cmd, err := sp.step()
		if err != nil {
			sp.done = true
			return nil, err
		}
		if cmd != nil {
			return cmd, nil
		}
	}
}

// All splits the remaining input.
func (sp *Splitter) All() ([]*Command, error) {
	var cmds []*Command
	for {
		cmd, err := sp.Next()
		if err == io.EOF {
			return cmds, nil
		}
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, cmd)
	}
}

// step consumes one delimiter or token. It returns a command when one was
// closed, and io.EOF at the end of input.
func (sp *Splitter) step() (*Command, error) {
	if tok, d, ok := sp.matchDelimiter(); ok {
		sp.lineBlank = false
		if !sp.hasContent {
			sp.resetPending(tok.End)
			return nil, nil
		}
		return sp.close(tok.Pos, tok.End, sp.sc.LineTail(), d), nil
	}

	line := sp.sc.Line()
	var tok lexer.Token
	if sp.singleLine {
		tok = sp.sc.ScanRaw(sp.rawStop())
	} else {
		tok = sp.sc.Scan()
	}
	switch {
	case tok.Type == lexer.EOF:
		if err := sp.sc.Err(); err != nil {
			return nil, err
		}
		if sp.hasContent {
			sp.done = true
			return sp.close(tok.Pos, tok.Pos, tok.Pos, delimiter.None), nil
		}
		return nil, io.EOF

	case tok.IsWhitespace():
		return sp.whitespace(tok), nil

	case tok.IsComment():
		sp.markStart(tok, line)
		sp.lineBlank = false
		return nil, nil
	}

	sp.markStart(tok, line)
	first := !sp.hasContent
	sp.hasContent = true
	if tok.IsError() && !sp.lexErr {
		sp.lexErr = true
		sp.errPos = tok.Pos
		sp.errMsg = tok.Err
	}
	if first && sp.policy.SupportsSingleLineStatements() && sp.policy.IsSingleLineStatement(tok, sp.lineBlank) {
		sp.singleLine = true
	}
	sp.policy.CurrentToken(tok, first)
	sp.lineBlank = false
	return nil, nil
}

// whitespace handles line ends: single-line statements and empty-line
// delimiters close there.
func (sp *Splitter) whitespace(tok lexer.Token) *Command {
	if !tok.EndsLine() {
		return nil
	}
	blank := sp.lineBlank
	sp.lineBlank = true
	sp.policy.LineEnd()

	switch {
	case sp.singleLine && sp.hasContent:
		return sp.close(tok.Pos, tok.Pos, tok.End, delimiter.None)
	case blank && sp.hasContent && sp.opts.EmptyLineIsDelimiter && !sp.policy.SupportsMixedDelimiters():
		return sp.close(tok.Pos, tok.Pos, tok.End, delimiter.None)
	}
	return nil
}

// rawStop is the delimiter that may end the raw rest of a single-line
// statement.
func (sp *Splitter) rawStop() string {
	if d := sp.policy.Current(); !d.SingleLine {
		return d.Text
	}
	return ""
}

/*
 * matchDelimiter tests the delimiter candidates at the current position.
 *
 * Candidates are the policy's current delimiter, and the alternate while
 * the default is active if the policy mixes delimiters. A single-line
 * delimiter needs a blank line before and after it.
 */
func (sp *Splitter) matchDelimiter() (lexer.Token, delimiter.Delimiter, bool) {
	cur := sp.policy.Current()
	cands := [2]delimiter.Delimiter{cur}
	n := 1
	if sp.policy.SupportsMixedDelimiters() && cur == sp.policy.Default() {
		if alt := sp.policy.Alternate(); !alt.IsEmpty() && alt != cur {
			cands[1] = alt
			n = 2
		}
	}
	for _, d := range cands[:n] {
		if d.IsEmpty() {
			continue
		}
		if d.SingleLine && (!sp.lineBlank || !sp.sc.RestOfLineBlank(len(d.Text))) {
			continue
		}
		if tok, ok := sp.sc.MatchDelimiter(d.Text, d.IsWord()); ok {
			return tok, d, true
		}
	}
	return lexer.Token{}, delimiter.None, false
}

func (sp *Splitter) markStart(tok lexer.Token, line int) {
	if sp.start < 0 {
		sp.start = tok.Pos
		sp.startLine = line
	}
}

// close finishes the pending statement. It returns nil when the statement
// was a directive consumed by the policy.
func (sp *Splitter) close(end, delimEnd, ownedEnd int, d delimiter.Delimiter) *Command {
	cmd := &Command{
		WhitespaceStart: sp.wsStart,
		Start:           sp.start,
		End:             end,
		DelimiterEnd:    delimEnd,
		OwnedEnd:        ownedEnd,
		Line:            sp.startLine,
		Delimiter:       d,
		LexicalError:    sp.lexErr,
		ErrorPos:        sp.errPos,
		ErrorMsg:        sp.errMsg,
	}
	directive := sp.dir != nil && sp.dir.IsDirective()
	sp.policy.StatementFinished()

	if sp.opts.CaptureText && !directive {
		from := cmd.Start
		if sp.opts.ReturnLeadingWhitespace {
			from = cmd.WhitespaceStart
		}
		cmd.Text = sp.sc.Text(from, cmd.End)
	}
	sp.resetPending(delimEnd)
	if directive {
		return nil
	}
	cmd.Index = sp.index
	sp.index++
	return cmd
}

func (sp *Splitter) resetPending(wsStart int) {
	sp.wsStart = wsStart
	sp.start = -1
	sp.startLine = 0
	sp.hasContent = false
	sp.singleLine = false
	sp.lexErr = false
	sp.errPos = 0
	sp.errMsg = ""
	if sp.opts.CaptureText {
		sp.sc.Release(wsStart)
	}
}
