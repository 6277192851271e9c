package gql

import "fmt"

// TokenType defines types of tokens
type TokenType int

const (
	TokenSemicolon TokenType = iota
	TokenLParen
	TokenColon
	TokenRParen
	TokenDash
	TokenArrow
	TokenComma
	TokenKeywordExplain
	TokenKeywordMatch
	TokenKeywordCreate
	TokenKeywordType
	TokenKeywordRelation
	TokenIntType
	TokenStrType
	TokenIdentName
	TokenIdentType
	TokenIdentRelation
	TokenSpaces
	TokenBlockComment
	TokenLineComment
	TokenUnexpectedChar
	TokenEOF
)

var tokenNames = [...]string{
	TokenSemicolon:       "SEMICOLON",
	TokenLParen:          "LPAREN",
	TokenColon:           "COLON",
	TokenRParen:          "RPAREN",
	TokenDash:            "DASH",
	TokenArrow:           "ARROW",
	TokenComma:           "COMMA",
	TokenKeywordExplain:  "K_EXPLAIN",
	TokenKeywordMatch:    "K_MATCH",
	TokenKeywordCreate:   "K_CREATE",
	TokenKeywordType:     "K_TYPE",
	TokenKeywordRelation: "K_RELATION",
	TokenIntType:         "T_INT",
	TokenStrType:         "T_STR",
	TokenIdentName:       "I_NAME",
	TokenIdentType:       "I_TYPE",
	TokenIdentRelation:   "I_RELATION",
	TokenSpaces:          "SPACES",
	TokenBlockComment:    "BLOCK_COMMENT",
	TokenLineComment:     "LINE_COMMENT",
	TokenUnexpectedChar:  "UNEXPECTED_CHAR",
	TokenEOF:             "EOF",
}

// literals holds the fixed spelling of punctuation tokens and EOF, used in
// error messages.
var literals = map[TokenType]string{
	TokenSemicolon: "';'",
	TokenLParen:    "'('",
	TokenColon:     "':'",
	TokenRParen:    "')'",
	TokenDash:      "'-'",
	TokenArrow:     "'->'",
	TokenComma:     "','",
	TokenEOF:       "<EOF>",
}

func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Display returns the quoted literal for punctuation and the symbolic name for
// everything else.
func (tt TokenType) Display() string {
	if lit, ok := literals[tt]; ok {
		return lit
	}
	return tt.String()
}

// Hidden reports whether tokens of this type are dropped before parsing.
func (tt TokenType) Hidden() bool {
	return tt == TokenSpaces || tt == TokenBlockComment || tt == TokenLineComment
}

// Token represents a lexical token
type Token struct {
	Type TokenType
	// Text is the exact source slice the token was matched from.
	Text   string
	Line   int
	Column int
	// Err names the anomaly for TokenUnexpectedChar tokens and is nil for
	// every other type.
	Err error
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%v:%q", t.Type, t.Text)
}
