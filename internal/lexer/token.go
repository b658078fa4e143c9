package lexer

import "strings"

/*
 * TokenType is the lexical category of a token.
 *
 * The set is deliberately flat: the splitter only needs to know whether a
 * token is whitespace, a comment, a literal that may hide delimiter
 * characters, or something significant that the delimiter policy should see.
 */
type TokenType int

// EOF is returned when the input is fully consumed.
const EOF TokenType = 0

const (
	Ident          TokenType = iota + 1 // unquoted identifier
	QuotedIdent                         // "name", [name], `name`
	Keyword                             // reserved word, Contents is upper case
	KeywordPhrase                       // multi-word reserved phrase, e.g. GROUP BY
	String                              // string literal in any quoting style
	Integer                             // numeric literal without fraction or exponent
	Decimal                             // numeric literal with fraction or exponent
	LineComment                         // -- … or # …
	BlockComment                        // /* … */
	Whitespace                          // blanks, at most one trailing newline
	Operator                            // operators and punctuation
	Variable                            // ${name}, $[name], $[?name], $1
	Delimiter                           // statement delimiter matched by the splitter
	Error                               // unterminated literal, identifier or comment
)

var tokenTypeNames = map[TokenType]string{
	EOF:           "EOF",
	Ident:         "identifier",
	QuotedIdent:   "quoted-identifier",
	Keyword:       "keyword",
	KeywordPhrase: "keyword-phrase",
	String:        "string",
	Integer:       "integer",
	Decimal:       "decimal",
	LineComment:   "line-comment",
	BlockComment:  "block-comment",
	Whitespace:    "whitespace",
	Operator:      "operator",
	Variable:      "variable",
	Delimiter:     "delimiter",
	Error:         "error",
}

// String returns a string representation of TokenType
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical token.
type Token struct {
	Type     TokenType // Lexical category.
	Text     string    // Raw source bytes that form this token.
	Contents string    // Normalized contents, see Scanner for the rules per type.
	Pos      int       // Byte offset of the first character (0-based).
	End      int       // Byte offset just past the last character.
	Err      string    // Problem description for Error tokens.
}

// IsWhitespace reports whether t is a whitespace token.
func (t Token) IsWhitespace() bool { return t.Type == Whitespace }

// IsComment reports whether t is a line or block comment.
func (t Token) IsComment() bool { return t.Type == LineComment || t.Type == BlockComment }

// IsSignificant reports whether t is neither whitespace, a comment nor EOF.
func (t Token) IsSignificant() bool {
	return t.Type != EOF && !t.IsWhitespace() && !t.IsComment()
}

// IsError reports whether t is an error token.
func (t Token) IsError() bool { return t.Type == Error }

// IsKeyword reports whether t is a keyword or keyword phrase matching word
// (case-insensitive, words separated by single blanks).
func (t Token) IsKeyword(word string) bool {
	if t.Type != Keyword && t.Type != KeywordPhrase {
		return false
	}
	return t.Contents == strings.ToUpper(word)
}

// IsWord reports whether t is an identifier or keyword spelled word,
// ignoring case. Policies use it for words that are not reserved in every
// dialect (DELIMITER, TERM, ATOMIC, …).
func (t Token) IsWord(word string) bool {
	switch t.Type {
	case Ident, Keyword, KeywordPhrase:
		return strings.EqualFold(t.Contents, word) || strings.EqualFold(t.Text, word)
	}
	return false
}

// Newlines returns the number of line breaks inside the token text.
func (t Token) Newlines() int { return strings.Count(t.Text, "\n") }

// EndsLine reports whether t is a whitespace token terminated by a newline.
func (t Token) EndsLine() bool {
	return t.Type == Whitespace && strings.HasSuffix(t.Text, "\n")
}
