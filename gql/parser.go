package gql

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Parser converts tokens into an AST. Each grammar rule is one method; every
// decision needs a single token of lookahead.
type Parser struct {
	tokens   []Token
	pos      int
	listener Listener
	// offered collects the token types that optional and repeated
	// constructs would have accepted at offeredPos. A failure at that
	// position reports them alongside the types that were required.
	offered    []TokenType
	offeredPos int
}

// NewParser initializes a new Parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:     tokens,
		pos:        0,
		offeredPos: -1,
	}
}

// SetListener registers l to be notified around every grammar rule.
func (p *Parser) SetListener(l Listener) {
	p.listener = l
}

// Parse parses the token stream into a Query. On failure the returned error
// is a *SyntaxError or a *LexicalError and no Query is returned.
func (p *Parser) Parse() (*Query, error) {
	log := logrus.WithField("component", "Parser")
	log.Debug("Starting parsing")
	q, err := p.query()
	if err != nil {
		log.WithError(err).Debug("Failed to parse query")
		return nil, err
	}
	log.WithField("statements", len(q.Statements)).Debug("Parsing complete")
	return q, nil
}

// query := ';'* ( statement ( ';'+ statement )* ';'* )? EOF
func (p *Parser) query() (q *Query, err error) {
	p.enter(RuleQuery)
	defer func() { p.exit(RuleQuery, err) }()
	q = &Query{Statements: []*Statement{}}
	for {
		for p.accept(TokenSemicolon) {
		}
		if p.accept(TokenEOF) {
			return q, nil
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		q.Statements = append(q.Statements, stmt)
		if p.accept(TokenSemicolon) {
			continue
		}
		if p.accept(TokenEOF) {
			return q, nil
		}
		return nil, p.fail()
	}
}

// statement := 'explain'? ( match_stmt | create_stmt )
func (p *Parser) statement() (stmt *Statement, err error) {
	p.enter(RuleStatement)
	defer func() { p.exit(RuleStatement, err) }()
	explain := p.accept(TokenKeywordExplain)
	var body Body
	switch p.current().Type {
	case TokenKeywordMatch:
		body, err = p.matchStmt()
	case TokenKeywordCreate:
		body, err = p.createStmt()
	default:
		p.offer(TokenKeywordMatch, TokenKeywordCreate)
		return nil, p.fail()
	}
	if err != nil {
		return nil, err
	}
	return &Statement{Explain: explain, Body: body}, nil
}

// match_stmt := 'match' node_chain
func (p *Parser) matchStmt() (m *Match, err error) {
	p.enter(RuleMatch)
	defer func() { p.exit(RuleMatch, err) }()
	if _, err := p.expect(TokenKeywordMatch); err != nil {
		return nil, err
	}
	chain, err := p.nodeChain()
	if err != nil {
		return nil, err
	}
	return &Match{Chain: chain}, nil
}

// node_chain := node ( relation node )*
func (p *Parser) nodeChain() (chain NodeChain, err error) {
	p.enter(RuleNodeChain)
	defer func() { p.exit(RuleNodeChain, err) }()
	first, err := p.node()
	if err != nil {
		return NodeChain{}, err
	}
	nodes := []NodePattern{first}
	relations := []RelationPattern{}
	for p.peekIs(TokenDash) {
		rel, err := p.relation()
		if err != nil {
			return NodeChain{}, err
		}
		next, err := p.node()
		if err != nil {
			return NodeChain{}, err
		}
		relations = append(relations, rel)
		nodes = append(nodes, next)
	}
	return NodeChain{Nodes: nodes, Relations: relations}, nil
}

// node := '(' I_NAME? ':' I_TYPE ')'
func (p *Parser) node() (node NodePattern, err error) {
	p.enter(RuleNode)
	defer func() { p.exit(RuleNode, err) }()
	if _, err := p.expect(TokenLParen); err != nil {
		return NodePattern{}, err
	}
	var name string
	if tok, ok := p.acceptToken(TokenIdentName); ok {
		name = tok.Text
	}
	if _, err := p.expect(TokenColon); err != nil {
		return NodePattern{}, err
	}
	typeTok, err := p.expect(TokenIdentType)
	if err != nil {
		return NodePattern{}, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return NodePattern{}, err
	}
	return NodePattern{Name: name, TypeName: stripSigil(typeTok.Text)}, nil
}

// relation := '-' ( I_NAME ':' )? I_RELATION '->'
func (p *Parser) relation() (rel RelationPattern, err error) {
	p.enter(RuleRelation)
	defer func() { p.exit(RuleRelation, err) }()
	if _, err := p.expect(TokenDash); err != nil {
		return RelationPattern{}, err
	}
	var name string
	if tok, ok := p.acceptToken(TokenIdentName); ok {
		name = tok.Text
		if _, err := p.expect(TokenColon); err != nil {
			return RelationPattern{}, err
		}
	}
	labelTok, err := p.expect(TokenIdentRelation)
	if err != nil {
		return RelationPattern{}, err
	}
	if _, err := p.expect(TokenArrow); err != nil {
		return RelationPattern{}, err
	}
	return RelationPattern{Name: name, Label: relationLabel(labelTok.Text)}, nil
}

// create_stmt := 'create' ( create_type | create_relation )
func (p *Parser) createStmt() (body Body, err error) {
	p.enter(RuleCreate)
	defer func() { p.exit(RuleCreate, err) }()
	if _, err := p.expect(TokenKeywordCreate); err != nil {
		return nil, err
	}
	switch p.current().Type {
	case TokenKeywordType:
		return p.createType()
	case TokenKeywordRelation:
		return p.createRelation()
	}
	p.offer(TokenKeywordType, TokenKeywordRelation)
	return nil, p.fail()
}

// create_type := 'type' I_TYPE '(' type_list ')'
func (p *Parser) createType() (ct *CreateType, err error) {
	p.enter(RuleCreateType)
	defer func() { p.exit(RuleCreateType, err) }()
	if _, err := p.expect(TokenKeywordType); err != nil {
		return nil, err
	}
	typeTok, err := p.expect(TokenIdentType)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	fields, err := p.typeList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &CreateType{TypeName: stripSigil(typeTok.Text), Fields: fields}, nil
}

// type_list := type_decl ( ',' type_decl )*
func (p *Parser) typeList() (fields []FieldDecl, err error) {
	p.enter(RuleTypeList)
	defer func() { p.exit(RuleTypeList, err) }()
	for {
		field, err := p.typeDecl()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if !p.accept(TokenComma) {
			return fields, nil
		}
	}
}

// type_decl := I_NAME ':' ( T_INT | T_STR )
func (p *Parser) typeDecl() (field FieldDecl, err error) {
	p.enter(RuleTypeDecl)
	defer func() { p.exit(RuleTypeDecl, err) }()
	nameTok, err := p.expect(TokenIdentName)
	if err != nil {
		return FieldDecl{}, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return FieldDecl{}, err
	}
	var kind FieldKind
	switch {
	case p.accept(TokenIntType):
		kind = FieldInt
	case p.accept(TokenStrType):
		kind = FieldStr
	default:
		return FieldDecl{}, p.fail()
	}
	return FieldDecl{Name: nameTok.Text, Kind: kind}, nil
}

// create_relation := 'relation' I_RELATION I_TYPE I_TYPE
func (p *Parser) createRelation() (cr *CreateRelation, err error) {
	p.enter(RuleCreateRelation)
	defer func() { p.exit(RuleCreateRelation, err) }()
	if _, err := p.expect(TokenKeywordRelation); err != nil {
		return nil, err
	}
	relTok, err := p.expect(TokenIdentRelation)
	if err != nil {
		return nil, err
	}
	fromTok, err := p.expect(TokenIdentType)
	if err != nil {
		return nil, err
	}
	toTok, err := p.expect(TokenIdentType)
	if err != nil {
		return nil, err
	}
	return &CreateRelation{
		RelationName: relationLabel(relTok.Text),
		FromType:     stripSigil(fromTok.Text),
		ToType:       stripSigil(toTok.Text),
	}, nil
}

// current returns the token at the read position. A token slice without a
// trailing EOF behaves as if it had one.
func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	eof := Token{Type: TokenEOF, Line: 1, Column: 1}
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		eof.Line, eof.Column = last.Line, last.Column+len([]rune(last.Text))
	}
	return eof
}

// peekIs checks the current token without consuming it. A miss is recorded
// as an offered alternative.
func (p *Parser) peekIs(tt TokenType) bool {
	if p.current().Type == tt {
		return true
	}
	p.offer(tt)
	return false
}

// acceptToken consumes and returns the current token if it has type tt
func (p *Parser) acceptToken(tt TokenType) (Token, bool) {
	if !p.peekIs(tt) {
		return Token{}, false
	}
	tok := p.current()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok, true
}

// accept optionally consumes a token of type tt
func (p *Parser) accept(tt TokenType) bool {
	_, ok := p.acceptToken(tt)
	return ok
}

// expect consumes a token of type tt or fails
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok, ok := p.acceptToken(tt)
	if !ok {
		return Token{}, p.fail()
	}
	return tok, nil
}

// offer records token types that would have been accepted at the current
// position.
func (p *Parser) offer(types ...TokenType) {
	if p.offeredPos != p.pos {
		p.offered = p.offered[:0]
		p.offeredPos = p.pos
	}
	for _, tt := range types {
		if !containsType(p.offered, tt) {
			p.offered = append(p.offered, tt)
		}
	}
}

// fail builds the error for the current token. Anomaly tokens from the
// tokenizer become a LexicalError; anything else is a SyntaxError listing
// what was acceptable here.
func (p *Parser) fail() error {
	tok := p.current()
	logrus.WithFields(logrus.Fields{
		"component": "Parser",
		"pos":       p.pos,
		"current":   tok.String(),
	}).Debug("Unexpected token")
	if tok.Type == TokenUnexpectedChar {
		cause := tok.Err
		if cause == nil {
			cause = ErrUnexpectedChar
		}
		return &LexicalError{Err: cause, Text: tok.Text, Line: tok.Line, Column: tok.Column}
	}
	var expected []TokenType
	if p.offeredPos == p.pos {
		expected = append(expected, p.offered...)
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
	return &SyntaxError{Token: tok, Expected: expected}
}

func (p *Parser) enter(rule Rule) {
	logrus.WithFields(logrus.Fields{
		"component": "Parser",
		"rule":      rule.String(),
		"pos":       p.pos,
	}).Trace("Enter rule")
	if p.listener != nil {
		p.listener.EnterRule(rule, p.current())
	}
}

func (p *Parser) exit(rule Rule, err error) {
	if p.listener != nil {
		p.listener.ExitRule(rule, err)
	}
}

func containsType(types []TokenType, tt TokenType) bool {
	for _, t := range types {
		if t == tt {
			return true
		}
	}
	return false
}

// stripSigil drops the leading '%' or '$' of an identifier.
func stripSigil(text string) string {
	return text[1:]
}

// relationLabel extracts the label from "$name" or "(label)". Exactly one
// character is removed from each end of the parenthesized form.
func relationLabel(text string) string {
	if text[0] == '$' {
		return text[1:]
	}
	return text[1 : len(text)-1]
}
