package gql

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) *Query {
	t.Helper()
	q, err := Parse(input)
	require.NoError(t, err, input)
	require.NotNil(t, q)
	return q
}

func syntaxError(t *testing.T, input string) *SyntaxError {
	t.Helper()
	q, err := Parse(input)
	assert.Nil(t, q)
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "expected SyntaxError for %q, got %v", input, err)
	return se
}

func Test_ParseCreateType(t *testing.T) {
	q := mustParse(t, "create type %Person(name:str,age:int);")
	assert.Equal(t, &Query{Statements: []*Statement{{
		Body: &CreateType{
			TypeName: "Person",
			Fields: []FieldDecl{
				{Name: "name", Kind: FieldStr},
				{Name: "age", Kind: FieldInt},
			},
		},
	}}}, q)
}

func Test_ParseCreateRelation(t *testing.T) {
	q := mustParse(t, "create relation $knows %Person %Person;")
	assert.Equal(t, &Query{Statements: []*Statement{{
		Body: &CreateRelation{RelationName: "knows", FromType: "Person", ToType: "Person"},
	}}}, q)
}

func Test_ParseExplainMatch(t *testing.T) {
	q := mustParse(t, "explain match (a:%Person)-(knows)->(b:%Person)")
	assert.Equal(t, &Query{Statements: []*Statement{{
		Explain: true,
		Body: &Match{Chain: NodeChain{
			Nodes: []NodePattern{
				{Name: "a", TypeName: "Person"},
				{Name: "b", TypeName: "Person"},
			},
			Relations: []RelationPattern{{Label: "knows"}},
		}},
	}}}, q)
}

func Test_SigilStripping(t *testing.T) {
	q := mustParse(t, "match (:%Foo)")
	node := q.Statements[0].Body.(*Match).Chain.Nodes[0]
	assert.Equal(t, "Foo", node.TypeName)
	assert.True(t, node.Anonymous())

	q = mustParse(t, "match (x:%Foo)")
	node = q.Statements[0].Body.(*Match).Chain.Nodes[0]
	assert.Equal(t, "Foo", node.TypeName)
	assert.Equal(t, "x", node.Name)
	assert.False(t, node.Anonymous())
}

func Test_RelationLabelExtraction(t *testing.T) {
	tests := []struct {
		input string
		label string
	}{
		{"match (:%A)-(knows)->(:%B)", "knows"},
		{"match (:%A)-( knows )->(:%B)", " knows "},
		{"match (:%A)-((x)->(:%B)", "(x"},
		{"match (:%A)-(is a: friend of!)->(:%B)", "is a: friend of!"},
		{"match (:%A)-$knows->(:%B)", "knows"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			q := mustParse(t, test.input)
			rels := q.Statements[0].Body.(*Match).Chain.Relations
			require.Len(t, rels, 1)
			assert.Equal(t, test.label, rels[0].Label)
		})
	}
}

func Test_RelationBinding(t *testing.T) {
	q := mustParse(t, "match (a:%P)-r:(knows)->(b:%P)")
	rel := q.Statements[0].Body.(*Match).Chain.Relations[0]
	assert.Equal(t, RelationPattern{Name: "r", Label: "knows"}, rel)

	se := syntaxError(t, "match (a:%P)-r(knows)->(b:%P)")
	assert.Equal(t, TokenLParen, se.Token.Type)
	assert.Equal(t, []TokenType{TokenColon}, se.Expected)
}

func Test_ChainLengthInvariant(t *testing.T) {
	inputs := []string{
		"match (:%A)",
		"match (a:%A)-(r)->(b:%B)",
		"match (a:%A)-(r)->(b:%B)-(s)->(:%C)",
		"match (a:%A)-(r)->(b:%B)-(s)->(:%C)-(t)->(d:%A)-(u)->(:%Z)",
	}
	for k, input := range inputs {
		chain := mustParse(t, input).Statements[0].Body.(*Match).Chain
		assert.Len(t, chain.Relations, k, input)
		assert.Len(t, chain.Nodes, len(chain.Relations)+1, input)
	}
	long := "match (:%A)" + strings.Repeat("-(next)->(:%A)", 50)
	chain := mustParse(t, long).Statements[0].Body.(*Match).Chain
	assert.Len(t, chain.Relations, 50)
	assert.Len(t, chain.Nodes, 51)
}

func Test_SeparatorTolerance(t *testing.T) {
	a := mustParse(t, ";match(:%A)-(knows)->(:%B);;")
	b := mustParse(t, "match(:%A)-(knows)->(:%B)")
	assert.Equal(t, b, a)

	// "->" cannot open a relation, with or without surrounding separators.
	for _, input := range []string{";match(:%A)->(knows)->(:%B);;", "match(:%A)->(knows)->(:%B)"} {
		se := syntaxError(t, input)
		assert.Equal(t, TokenArrow, se.Token.Type)
	}
}

func Test_EmptyQuery(t *testing.T) {
	for _, input := range []string{"", ";", ";;;", " \n\t", "/* nothing */ ; // here\n;"} {
		q := mustParse(t, input)
		assert.Empty(t, q.Statements, "%q", input)
	}
}

func Test_MultipleStatements(t *testing.T) {
	q := mustParse(t, `
		create type %Person(name: str, age: int);
		create relation $knows %Person %Person;;
		explain match (a:%Person)-(knows)->(:%Person);
		match (:%Person)
	`)
	require.Len(t, q.Statements, 4)
	assert.IsType(t, &CreateType{}, q.Statements[0].Body)
	assert.IsType(t, &CreateRelation{}, q.Statements[1].Body)
	assert.IsType(t, &Match{}, q.Statements[2].Body)
	assert.True(t, q.Statements[2].Explain)
	assert.False(t, q.Statements[3].Explain)
}

func Test_KeywordCase(t *testing.T) {
	a := mustParse(t, "EXPLAIN CREATE TYPE %T(a:INT, b:Str)")
	b := mustParse(t, "explain create type %T(a:int, b:str)")
	assert.Equal(t, b, a)
}

func Test_DuplicateFieldsKept(t *testing.T) {
	q := mustParse(t, "create type %T(a:int, a:str, a:int)")
	assert.Equal(t, []FieldDecl{
		{Name: "a", Kind: FieldInt},
		{Name: "a", Kind: FieldStr},
		{Name: "a", Kind: FieldInt},
	}, q.Statements[0].Body.(*CreateType).Fields)
}

func Test_CreateRelationLabelForm(t *testing.T) {
	q := mustParse(t, "create relation (knows well) %A %B")
	assert.Equal(t, &CreateRelation{RelationName: "knows well", FromType: "A", ToType: "B"}, q.Statements[0].Body)
}

func Test_WhitespaceAndCommentsDoNotChangeAST(t *testing.T) {
	queries := []string{
		"create type %Person(name:str,age:int);",
		"create relation $knows %Person %Person;",
		"explain match (a:%Person)-(knows)->(b:%Person)",
		"match (:%A)-r:(x y)->(b:%B)-$z->(:%C);create relation (p q) %A %B",
	}
	separators := []string{" ", "\t", "\n", "\r\n", "  /* block */  ", "/*\nmulti\nline\n*/", "// line\n", " // line\r\n\t"}
	for _, query := range queries {
		want := mustParse(t, query)
		tokens := NewTokenizer(query).Tokenize()
		for _, sep := range separators {
			var b strings.Builder
			b.WriteString(sep)
			for _, tok := range tokens {
				b.WriteString(tok.Text)
				b.WriteString(sep)
			}
			spaced := b.String()
			got, err := Parse(spaced)
			if assert.NoError(t, err, "%q", spaced) {
				assert.Equal(t, want, got, "%q", spaced)
			}
		}
	}
}

func Test_RejectMissingRelationLabel(t *testing.T) {
	se := syntaxError(t, "match (:%A) -> (:%B)")
	assert.Equal(t, TokenArrow, se.Token.Type)
	assert.Equal(t, 1, se.Token.Line)
	assert.Equal(t, 13, se.Token.Column)
	assert.Equal(t, []TokenType{TokenSemicolon, TokenDash, TokenEOF}, se.Expected)
}

func Test_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		token    TokenType
		text     string
		expected []TokenType
	}{
		{
			name:     "unknown statement",
			input:    "frobnicate",
			token:    TokenIdentName,
			text:     "frobnicate",
			expected: []TokenType{TokenSemicolon, TokenKeywordExplain, TokenKeywordMatch, TokenKeywordCreate, TokenEOF},
		},
		{
			name:     "explain alone",
			input:    "explain",
			token:    TokenEOF,
			expected: []TokenType{TokenKeywordMatch, TokenKeywordCreate},
		},
		{
			name:     "dangling dash",
			input:    "match (:%A)-",
			token:    TokenEOF,
			expected: []TokenType{TokenIdentName, TokenIdentRelation},
		},
		{
			name:     "missing arrow",
			input:    "match (:%A)-(r)(:%B)",
			token:    TokenLParen,
			text:     "(",
			expected: []TokenType{TokenArrow},
		},
		{
			name:     "node without type",
			input:    "match (a)",
			token:    TokenRParen,
			text:     ")",
			expected: []TokenType{TokenColon},
		},
		{
			name:     "node without colon",
			input:    "match (%A)",
			token:    TokenIdentType,
			text:     "%A",
			expected: []TokenType{TokenColon, TokenIdentName},
		},
		{
			name:     "plain name where type expected",
			input:    "match (a:A)",
			token:    TokenIdentName,
			text:     "A",
			expected: []TokenType{TokenIdentType},
		},
		{
			name:     "match without chain",
			input:    "match;",
			token:    TokenSemicolon,
			text:     ";",
			expected: []TokenType{TokenLParen},
		},
		{
			name:     "unknown create target",
			input:    "create index %A",
			token:    TokenIdentName,
			text:     "index",
			expected: []TokenType{TokenKeywordType, TokenKeywordRelation},
		},
		{
			name:     "empty type list",
			input:    "create type %A()",
			token:    TokenRParen,
			text:     ")",
			expected: []TokenType{TokenIdentName},
		},
		{
			name:     "unknown field kind",
			input:    "create type %A(x:bool)",
			token:    TokenIdentName,
			text:     "bool",
			expected: []TokenType{TokenIntType, TokenStrType},
		},
		{
			name:     "unclosed type list",
			input:    "match (:%A); create type %B(x:int",
			token:    TokenEOF,
			expected: []TokenType{TokenRParen, TokenComma},
		},
		{
			name:     "trailing comma",
			input:    "create type %B(x:int,)",
			token:    TokenRParen,
			text:     ")",
			expected: []TokenType{TokenIdentName},
		},
		{
			name:     "missing separator",
			input:    "match (:%A) match (:%B)",
			token:    TokenKeywordMatch,
			text:     "match",
			expected: []TokenType{TokenSemicolon, TokenDash, TokenEOF},
		},
		{
			name:     "relation with one type",
			input:    "create relation $r %A;",
			token:    TokenSemicolon,
			text:     ";",
			expected: []TokenType{TokenIdentType},
		},
		{
			name:     "relation name without sigil",
			input:    "create relation %A %B %C",
			token:    TokenIdentType,
			text:     "%A",
			expected: []TokenType{TokenIdentRelation},
		},
		{
			name:     "keyword as field name",
			input:    "create type %A(type:int)",
			token:    TokenKeywordType,
			text:     "type",
			expected: []TokenType{TokenIdentName},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			se := syntaxError(t, test.input)
			assert.Equal(t, test.token, se.Token.Type)
			assert.Equal(t, test.text, se.Token.Text)
			assert.Equal(t, test.expected, se.Expected)
		})
	}
}

func Test_LexicalErrors(t *testing.T) {
	tests := []struct {
		input  string
		err    error
		text   string
		column int
	}{
		{"match (:%)", ErrEmptyTypeSigil, "%", 9},
		{"match (:%A)-(knows", ErrUnterminatedRelationLabel, "(knows", 13},
		{"match (:%A)-()->(:%B)", ErrEmptyRelationSigil, "()", 13},
		{"create relation $ %A %B", ErrEmptyRelationSigil, "$", 17},
		{"match (:%A) @", ErrUnexpectedChar, "@", 13},
		{"match (:%AÄ)", ErrUnexpectedChar, "Ä", 11},
		{"match (:%Ä)", ErrEmptyTypeSigil, "%", 9},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			q, err := Parse(test.input)
			assert.Nil(t, q)
			assert.True(t, errors.Is(err, test.err), "got %v", err)
			var le *LexicalError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, test.text, le.Text)
			assert.Equal(t, 1, le.Line)
			assert.Equal(t, test.column, le.Column)
		})
	}
}

func Test_FirstProblemWins(t *testing.T) {
	// The syntax error comes before the bad character.
	se := syntaxError(t, "match (:%A) (:%B) @")
	assert.Equal(t, TokenLParen, se.Token.Type)

	// The bad character is reached first.
	_, err := Parse("match (:%A) @ (:%B)")
	assert.True(t, errors.Is(err, ErrUnexpectedChar))
}

func Test_ParserWithoutEOFToken(t *testing.T) {
	tokens := NewTokenizer("match (:%A)").Tokenize()
	q, err := NewParser(tokens[:len(tokens)-1]).Parse()
	require.NoError(t, err)
	assert.Len(t, q.Statements, 1)

	_, err = NewParser(tokens[:2]).Parse()
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, TokenEOF, se.Token.Type)
	assert.Equal(t, 8, se.Token.Column)
}

func Test_Listener(t *testing.T) {
	var events []string
	depth := 0
	l := ListenerFuncs{
		Enter: func(rule Rule, at Token) {
			events = append(events, strings.Repeat(" ", depth)+"enter "+rule.String()+" "+at.Text)
			depth++
		},
		Exit: func(rule Rule, err error) {
			depth--
			suffix := ""
			if err != nil {
				suffix = " error"
			}
			events = append(events, strings.Repeat(" ", depth)+"exit "+rule.String()+suffix)
		},
	}
	p := NewParser(NewTokenizer("match (a:%A)-(r)->(:%B)").Tokenize())
	p.SetListener(l)
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"enter query match",
		" enter statement match",
		"  enter match_stmt match",
		"   enter node_chain (",
		"    enter node (",
		"    exit node",
		"    enter relation -",
		"    exit relation",
		"    enter node (",
		"    exit node",
		"   exit node_chain",
		"  exit match_stmt",
		" exit statement",
		"exit query",
	}, events)
	assert.Equal(t, 0, depth)

	events = nil
	p = NewParser(NewTokenizer("create type %A(x:bool)").Tokenize())
	p.SetListener(l)
	_, err = p.Parse()
	require.Error(t, err)
	assert.Equal(t, "     exit type_decl error", events[len(events)-6])
	assert.Equal(t, "exit query error", events[len(events)-1])
	assert.Equal(t, 0, depth)
}

func Test_RuleString(t *testing.T) {
	assert.Equal(t, "create_relation", RuleCreateRelation.String())
	assert.Equal(t, "Rule(42)", Rule(42).String())
}
