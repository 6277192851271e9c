package gql

import (
	"errors"
	"fmt"
	"strings"
)

// Lexical anomalies. The tokenizer attaches one of these to every
// TokenUnexpectedChar token it emits.
var (
	ErrUnexpectedChar            = errors.New("unexpected character")
	ErrUnterminatedRelationLabel = errors.New("unterminated relation label")
	ErrEmptyTypeSigil            = errors.New("type sigil '%' not followed by a name")
	ErrEmptyRelationSigil        = errors.New("relation reference has an empty name")
)

// LexicalError is returned when the parser reaches an anomaly token.
type LexicalError struct {
	Err    error
	Text   string
	Line   int
	Column int
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at line %d, column %d: %v %q", e.Line, e.Column, e.Err, e.Text)
}

func (e *LexicalError) Unwrap() error {
	return e.Err
}

// SyntaxError is returned when a token does not fit the grammar at its
// position. Expected lists every token type that would have been accepted.
type SyntaxError struct {
	Token    Token
	Expected []TokenType
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Token.Line, e.Token.Column, e.message())
}

func (e *SyntaxError) message() string {
	found := "<EOF>"
	if e.Token.Type != TokenEOF {
		found = fmt.Sprintf("%q", e.Token.Text)
	}
	want := make([]string, len(e.Expected))
	for i, tt := range e.Expected {
		want[i] = tt.Display()
	}
	switch len(want) {
	case 0:
		return "unexpected " + found
	case 1:
		return fmt.Sprintf("mismatched input %s expecting %s", found, want[0])
	}
	return fmt.Sprintf("mismatched input %s expecting {%s}", found, strings.Join(want, ", "))
}

// position extracts the 1-based location carried by errors from this package.
func position(err error) (line, column int, msg string, ok bool) {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Token.Line, se.Token.Column, se.message(), true
	}
	var le *LexicalError
	if errors.As(err, &le) {
		return le.Line, le.Column, fmt.Sprintf("%v %q", le.Err, le.Text), true
	}
	return 0, 0, "", false
}

// Annotate renders err with the offending source line and a marker under the
// reported column:
//
//	Parser error: mismatched input "->" expecting {';', '-', <EOF>}
//	At
//		match (:%A) -> (:%B)
//		------------^
//
// Errors that carry no position are returned as their plain message.
func Annotate(input string, err error) string {
	line, column, msg, ok := position(err)
	if !ok {
		return err.Error()
	}
	lines := strings.Split(input, "\n")
	text := ""
	if line >= 1 && line <= len(lines) {
		text = strings.TrimRight(lines[line-1], "\r")
	}
	marker := strings.Repeat("-", max(column-1, 0)) + "^"
	return fmt.Sprintf("Parser error: %s\nAt\n\t%s\n\t%s", msg, text, marker)
}
