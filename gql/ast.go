package gql

import (
	"fmt"
	"strings"
)

// Query is the root of the tree: the statements of one input, in order.
type Query struct {
	Statements []*Statement
}

// Statement is one ';'-separated statement.
type Statement struct {
	Explain bool
	Body    Body
}

// Body is implemented by *Match, *CreateType and *CreateRelation.
type Body interface {
	fmt.Stringer
	body()
}

// Match is a "match" statement.
type Match struct {
	Chain NodeChain
}

// NodeChain alternates nodes and relations. Relations[i] connects Nodes[i] to
// Nodes[i+1], so there is always exactly one more node than relations.
type NodeChain struct {
	Nodes     []NodePattern
	Relations []RelationPattern
}

// NodePattern is one "(name:%Type)" element of a chain.
type NodePattern struct {
	// Name is the bound variable name, empty for an anonymous node.
	Name     string
	TypeName string
}

// Anonymous reports whether the node binds no name.
func (n NodePattern) Anonymous() bool {
	return n.Name == ""
}

// RelationPattern is one "-(label)->" element of a chain.
type RelationPattern struct {
	// Name is the optional binding from "-name:(label)->".
	Name  string
	Label string
}

// FieldKind is the declared storage type of a field.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldStr
)

func (fk FieldKind) String() string {
	switch fk {
	case FieldInt:
		return "int"
	case FieldStr:
		return "str"
	default:
		return "unknown"
	}
}

// FieldDecl is one "name:int" or "name:str" entry of a type declaration.
type FieldDecl struct {
	Name string
	Kind FieldKind
}

// CreateType declares a node type and its fields in storage order.
type CreateType struct {
	TypeName string
	Fields   []FieldDecl
}

// CreateRelation declares a relation type between two node types.
type CreateRelation struct {
	RelationName string
	FromType     string
	ToType       string
}

func (*Match) body()          {}
func (*CreateType) body()     {}
func (*CreateRelation) body() {}

// String renders the query as GQL text that parses back to an equal Query.
func (q *Query) String() string {
	var b strings.Builder
	for i, s := range q.Statements {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.String())
		b.WriteByte(';')
	}
	return b.String()
}

func (s *Statement) String() string {
	if s.Explain {
		return "explain " + s.Body.String()
	}
	return s.Body.String()
}

func (m *Match) String() string {
	return "match " + m.Chain.String()
}

func (c NodeChain) String() string {
	var b strings.Builder
	for i, n := range c.Nodes {
		if i > 0 {
			b.WriteString(c.Relations[i-1].String())
		}
		b.WriteString(n.String())
	}
	return b.String()
}

func (n NodePattern) String() string {
	return fmt.Sprintf("(%s:%%%s)", n.Name, n.TypeName)
}

func (r RelationPattern) String() string {
	if r.Name != "" {
		return fmt.Sprintf("-%s:(%s)->", r.Name, r.Label)
	}
	return fmt.Sprintf("-(%s)->", r.Label)
}

func (ct *CreateType) String() string {
	fields := make([]string, len(ct.Fields))
	for i, f := range ct.Fields {
		fields[i] = f.Name + ":" + f.Kind.String()
	}
	return fmt.Sprintf("create type %%%s(%s)", ct.TypeName, strings.Join(fields, ", "))
}

func (cr *CreateRelation) String() string {
	return fmt.Sprintf("create relation %s %%%s %%%s", relationRef(cr.RelationName), cr.FromType, cr.ToType)
}

// relationRef spells a relation name with the '$' sigil when it is a plain
// name and as a parenthesized label otherwise.
func relationRef(name string) string {
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return "(" + name + ")"
		}
	}
	return "$" + name
}

// Dump renders the query as an indented listing, one line per chain element
// or field:
//
//	Match:
//		Node(a): Person
//		Relation: knows
//		Node: Person
func Dump(q *Query) string {
	var b strings.Builder
	for _, s := range q.Statements {
		if s.Explain {
			b.WriteString("Explain ")
		}
		switch body := s.Body.(type) {
		case *Match:
			b.WriteString("Match:\n")
			for i, n := range body.Chain.Nodes {
				if i > 0 {
					r := body.Chain.Relations[i-1]
					if r.Name != "" {
						fmt.Fprintf(&b, "\tRelation(%s): %s\n", r.Name, r.Label)
					} else {
						fmt.Fprintf(&b, "\tRelation: %s\n", r.Label)
					}
				}
				if n.Anonymous() {
					fmt.Fprintf(&b, "\tNode: %s\n", n.TypeName)
				} else {
					fmt.Fprintf(&b, "\tNode(%s): %s\n", n.Name, n.TypeName)
				}
			}
		case *CreateType:
			fmt.Fprintf(&b, "CreateType: %s\n", body.TypeName)
			for _, f := range body.Fields {
				fmt.Fprintf(&b, "\t%s: %s\n", f.Name, f.Kind)
			}
		case *CreateRelation:
			fmt.Fprintf(&b, "CreateRelation: %s\n\tFrom: %s\n\tTo: %s\n", body.RelationName, body.FromType, body.ToType)
		}
	}
	return b.String()
}
