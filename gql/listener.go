package gql

import "fmt"

// Rule identifies a grammar rule for Listener callbacks.
type Rule int

const (
	RuleQuery Rule = iota
	RuleStatement
	RuleMatch
	RuleNodeChain
	RuleNode
	RuleRelation
	RuleCreate
	RuleCreateType
	RuleTypeList
	RuleTypeDecl
	RuleCreateRelation
)

var ruleNames = [...]string{
	RuleQuery:          "query",
	RuleStatement:      "statement",
	RuleMatch:          "match_stmt",
	RuleNodeChain:      "node_chain",
	RuleNode:           "node",
	RuleRelation:       "relation",
	RuleCreate:         "create_stmt",
	RuleCreateType:     "create_type",
	RuleTypeList:       "type_list",
	RuleTypeDecl:       "type_decl",
	RuleCreateRelation: "create_relation",
}

func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Listener observes the parser as it enters and leaves grammar rules. Calls
// are strictly nested. ExitRule receives the error the rule failed with, or
// nil.
type Listener interface {
	EnterRule(rule Rule, at Token)
	ExitRule(rule Rule, err error)
}

// ListenerFuncs adapts plain functions to Listener. Either field may be nil.
type ListenerFuncs struct {
	Enter func(rule Rule, at Token)
	Exit  func(rule Rule, err error)
}

func (l ListenerFuncs) EnterRule(rule Rule, at Token) {
	if l.Enter != nil {
		l.Enter(rule, at)
	}
}

func (l ListenerFuncs) ExitRule(rule Rule, err error) {
	if l.Exit != nil {
		l.Exit(rule, err)
	}
}
