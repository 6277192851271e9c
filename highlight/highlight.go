// Package highlight renders GQL source with a terminal style per token kind.
// It re-lexes the input with the gql tokenizer, keeping whitespace and
// comments, so the rendered text reads exactly like the input.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"graphene/gql"
)

// Theme maps token kinds to styles. Kinds without an entry are written
// unstyled.
type Theme map[gql.TokenType]lipgloss.Style

// DefaultTheme returns the styles used by the command line tools, created on
// renderer r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	keyword := r.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	punct := r.NewStyle().Foreground(lipgloss.Color("245"))
	comment := r.NewStyle().Italic(true).Foreground(lipgloss.Color("240"))
	return Theme{
		gql.TokenSemicolon:       punct,
		gql.TokenLParen:          punct,
		gql.TokenColon:           punct,
		gql.TokenRParen:          punct,
		gql.TokenDash:            punct,
		gql.TokenArrow:           punct,
		gql.TokenComma:           punct,
		gql.TokenKeywordExplain:  keyword,
		gql.TokenKeywordMatch:    keyword,
		gql.TokenKeywordCreate:   keyword,
		gql.TokenKeywordType:     keyword,
		gql.TokenKeywordRelation: keyword,
		gql.TokenIntType:         r.NewStyle().Foreground(lipgloss.Color("141")),
		gql.TokenStrType:         r.NewStyle().Foreground(lipgloss.Color("141")),
		gql.TokenIdentName:       r.NewStyle().Foreground(lipgloss.Color("252")),
		gql.TokenIdentType:       r.NewStyle().Foreground(lipgloss.Color("44")),
		gql.TokenIdentRelation:   r.NewStyle().Foreground(lipgloss.Color("214")),
		gql.TokenBlockComment:    comment,
		gql.TokenLineComment:     comment,
		gql.TokenUnexpectedChar:  r.NewStyle().Underline(true).Foreground(lipgloss.Color("203")),
	}
}

// Render returns input with every token styled according to theme.
func Render(input string, theme Theme) string {
	var b strings.Builder
	t := gql.NewTokenizer(input)
	for {
		tok := t.Next()
		if tok.Type == gql.TokenEOF {
			return b.String()
		}
		style, ok := theme[tok.Type]
		if !ok || tok.Type == gql.TokenSpaces {
			b.WriteString(tok.Text)
			continue
		}
		// Styles pad multi-line text to a block, so lines are styled one
		// at a time.
		for i, line := range strings.Split(tok.Text, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.TabWidth(lipgloss.NoTabConversion).Render(line))
			}
		}
	}
}

// Entry is one row of a token listing.
type Entry struct {
	Token  gql.Token
	Styled string
}

// Tokens returns every token of input, hidden ones included, with its text
// styled according to theme. The trailing EOF token is included.
func Tokens(input string, theme Theme) []Entry {
	var entries []Entry
	t := gql.NewTokenizer(input)
	for {
		tok := t.Next()
		styled := tok.Text
		if style, ok := theme[tok.Type]; ok && !strings.ContainsAny(tok.Text, "\n") {
			styled = style.TabWidth(lipgloss.NoTabConversion).Render(tok.Text)
		}
		entries = append(entries, Entry{Token: tok, Styled: styled})
		if tok.Type == gql.TokenEOF {
			return entries
		}
	}
}
