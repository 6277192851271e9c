package gql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

var keywords = map[string]TokenType{
	"explain":  TokenKeywordExplain,
	"match":    TokenKeywordMatch,
	"create":   TokenKeywordCreate,
	"type":     TokenKeywordType,
	"relation": TokenKeywordRelation,
	"int":      TokenIntType,
	"str":      TokenStrType,
}

// Tokenizer breaks a query into tokens. Tokens are produced one per call to
// Next; a Tokenizer cannot be rewound.
type Tokenizer struct {
	input  string
	pos    int
	line   int
	column int
	// recent holds the types of the last three visible tokens, most recent
	// first. It decides whether '(' opens a relation label.
	recent [3]TokenType
	tokens []Token
}

// NewTokenizer initializes a new Tokenizer
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{
		input:  input,
		pos:    0,
		line:   1,
		column: 1,
		recent: [3]TokenType{TokenEOF, TokenEOF, TokenEOF},
		tokens: []Token{},
	}
}

// Tokenize drains the tokenizer and returns the tokens the parser sees:
// hidden tokens are dropped and the result always ends with TokenEOF.
func (t *Tokenizer) Tokenize() []Token {
	log := logrus.WithField("component", "Tokenizer")
	log.Debug("Starting tokenization")
	for {
		tok := t.Next()
		if tok.Type.Hidden() {
			continue
		}
		t.tokens = append(t.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	log.WithField("token_count", len(t.tokens)).Debug("Tokenization complete")
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		tokenList := make([]string, len(t.tokens))
		for i, token := range t.tokens {
			tokenList[i] = token.String()
		}
		log.WithField("tokens", strings.Join(tokenList, ", ")).Trace("Tokens produced")
	}
	return t.tokens
}

// Next returns the next token, hidden ones included. Once the input is
// exhausted every call returns a TokenEOF token.
func (t *Tokenizer) Next() Token {
	if t.pos >= len(t.input) {
		return t.emit(TokenEOF, t.pos, t.line, t.column, nil)
	}
	c := t.input[t.pos]
	switch {
	case isSpace(c):
		return t.readSpaces()
	case c == '/' && t.peek(1) == '/':
		return t.readLineComment()
	case c == '/' && t.peek(1) == '*':
		if tok, ok := t.readBlockComment(); ok {
			return tok
		}
		return t.readUnexpected(ErrUnexpectedChar)
	case isLetter(c):
		return t.readIdentifierOrKeyword()
	case c == '%':
		return t.readSigilName(TokenIdentType, ErrEmptyTypeSigil)
	case c == '$':
		return t.readSigilName(TokenIdentRelation, ErrEmptyRelationSigil)
	case c == '(' && t.atLabel():
		return t.readRelationLabel()
	default:
		return t.readSymbol()
	}
}

// atLabel reports whether the grammar expects a relation label next: after
// '-', after 'relation', or after the binding in "- name :".
func (t *Tokenizer) atLabel() bool {
	switch t.recent[0] {
	case TokenDash, TokenKeywordRelation:
		return true
	case TokenColon:
		return t.recent[1] == TokenIdentName && t.recent[2] == TokenDash
	}
	return false
}

func (t *Tokenizer) peek(offset int) byte {
	if t.pos+offset >= len(t.input) {
		return 0
	}
	return t.input[t.pos+offset]
}

// advance moves the read position to end, keeping line and column current.
func (t *Tokenizer) advance(end int) {
	for _, r := range t.input[t.pos:end] {
		if r == '\n' {
			t.line++
			t.column = 1
		} else {
			t.column++
		}
	}
	t.pos = end
}

// emit builds the token spanning from start to the current position.
func (t *Tokenizer) emit(tt TokenType, start, line, column int, err error) Token {
	tok := Token{
		Type:   tt,
		Text:   t.input[start:t.pos],
		Line:   line,
		Column: column,
		Err:    err,
	}
	if !tt.Hidden() && tt != TokenEOF {
		t.recent[2], t.recent[1], t.recent[0] = t.recent[1], t.recent[0], tt
	}
	return tok
}

// scan consumes input up to end and emits it as a single token.
func (t *Tokenizer) scan(tt TokenType, end int, err error) Token {
	start, line, column := t.pos, t.line, t.column
	t.advance(end)
	return t.emit(tt, start, line, column, err)
}

// readSpaces reads a run of whitespace
func (t *Tokenizer) readSpaces() Token {
	end := t.pos
	for end < len(t.input) && isSpace(t.input[end]) {
		end++
	}
	return t.scan(TokenSpaces, end, nil)
}

// readLineComment reads a comment up to, not including, the line break
func (t *Tokenizer) readLineComment() Token {
	end := t.pos + 2
	for end < len(t.input) && t.input[end] != '\n' && t.input[end] != '\r' {
		end++
	}
	return t.scan(TokenLineComment, end, nil)
}

// readBlockComment reads a comment up to the first "*/". An unterminated
// comment is not a comment at all.
func (t *Tokenizer) readBlockComment() (Token, bool) {
	idx := strings.Index(t.input[t.pos+2:], "*/")
	if idx < 0 {
		return Token{}, false
	}
	return t.scan(TokenBlockComment, t.pos+2+idx+2, nil), true
}

// readIdentifierOrKeyword reads an identifier or keyword
func (t *Tokenizer) readIdentifierOrKeyword() Token {
	end := t.pos + 1
	for end < len(t.input) && isNameChar(t.input[end]) {
		end++
	}
	tt := TokenIdentName
	if kw, ok := keywords[strings.ToLower(t.input[t.pos:end])]; ok {
		tt = kw
	}
	return t.scan(tt, end, nil)
}

// readSigilName reads '%name' or '$name'. The sigil alone is an anomaly.
func (t *Tokenizer) readSigilName(tt TokenType, empty error) Token {
	end := t.pos + 1
	for end < len(t.input) && isNameChar(t.input[end]) {
		end++
	}
	if end == t.pos+1 {
		return t.scan(TokenUnexpectedChar, end, empty)
	}
	return t.scan(tt, end, nil)
}

// readRelationLabel reads a parenthesized label such as "(knows)". The label
// ends at the first ')' and may not span lines.
func (t *Tokenizer) readRelationLabel() Token {
	end := t.pos + 1
	for end < len(t.input) && t.input[end] != ')' && t.input[end] != '\n' && t.input[end] != '\r' {
		end++
	}
	switch {
	case end >= len(t.input) || t.input[end] != ')':
		return t.scan(TokenUnexpectedChar, end, ErrUnterminatedRelationLabel)
	case end == t.pos+1:
		return t.scan(TokenUnexpectedChar, end+1, ErrEmptyRelationSigil)
	}
	return t.scan(TokenIdentRelation, end+1, nil)
}

// readSymbol reads a punctuation token
func (t *Tokenizer) readSymbol() Token {
	switch t.input[t.pos] {
	case ';':
		return t.scan(TokenSemicolon, t.pos+1, nil)
	case '(':
		return t.scan(TokenLParen, t.pos+1, nil)
	case ':':
		return t.scan(TokenColon, t.pos+1, nil)
	case ')':
		return t.scan(TokenRParen, t.pos+1, nil)
	case ',':
		return t.scan(TokenComma, t.pos+1, nil)
	case '-':
		if t.peek(1) == '>' {
			return t.scan(TokenArrow, t.pos+2, nil)
		}
		return t.scan(TokenDash, t.pos+1, nil)
	}
	return t.readUnexpected(ErrUnexpectedChar)
}

// readUnexpected consumes a single rune as an anomaly token
func (t *Tokenizer) readUnexpected(err error) Token {
	_, size := utf8.DecodeRuneInString(t.input[t.pos:])
	logrus.WithFields(logrus.Fields{
		"component": "Tokenizer",
		"char":      fmt.Sprintf("%q", t.input[t.pos:t.pos+size]),
		"line":      t.line,
		"column":    t.column,
	}).Debug("Unexpected character")
	return t.scan(TokenUnexpectedChar, t.pos+size, err)
}

func isSpace(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9')
}
