// Package pysrc is the small intermediate representation emitters build
// Python source with. Emitters produce statements; one printer owns
// indentation, empty bodies and the spacing between top-level definitions.
package pysrc

import "fmt"

// Stmt is a Python statement or compound statement.
type Stmt interface {
	stmt()
}

// Line is a single simple statement.
type Line string

// L formats a Line.
func L(format string, args ...any) Line {
	if len(args) == 0 {
		return Line(format)
	}
	return Line(fmt.Sprintf(format, args...))
}

// Comment is a "# ..." line. Multi-line text produces one comment per line.
type Comment string

// Blank is an empty line.
type Blank struct{}

// Raw is verbatim text. Each line is indented to the current depth.
type Raw string

// Block is a compound statement with an optional decorator list:
// def, async def, class, for, with, while.
type Block struct {
	Decorators []string
	Header     string
	Body       []Stmt
}

// Def builds "async def name(params):".
func Def(name, params string, body ...Stmt) *Block {
	return &Block{Header: fmt.Sprintf("async def %s(%s):", name, params), Body: body}
}

// SyncDef builds "def name(params):".
func SyncDef(name, params string, body ...Stmt) *Block {
	return &Block{Header: fmt.Sprintf("def %s(%s):", name, params), Body: body}
}

// Decorate prepends decorators and returns the block.
func (b *Block) Decorate(decorators ...string) *Block {
	b.Decorators = append(decorators, b.Decorators...)
	return b
}

// Branch is one "if"/"elif" arm.
type Branch struct {
	Cond string
	Body []Stmt
}

// If is an if/elif/else chain.
type If struct {
	Branches []Branch
	Else     []Stmt
}

// NewIf starts a chain with its first condition.
func NewIf(cond string, body ...Stmt) *If {
	return &If{Branches: []Branch{{Cond: cond, Body: body}}}
}

// ElseIf appends an elif arm.
func (i *If) ElseIf(cond string, body ...Stmt) *If {
	i.Branches = append(i.Branches, Branch{Cond: cond, Body: body})
	return i
}

// Otherwise sets the else arm.
func (i *If) Otherwise(body ...Stmt) *If {
	i.Else = body
	return i
}

// Except is one "except" clause, e.g. "TelegramBadRequest as e".
type Except struct {
	Clause string
	Body   []Stmt
}

// Try is a try/except/finally statement.
type Try struct {
	Body    []Stmt
	Excepts []Except
	Finally []Stmt
}

// NewTry starts a try statement.
func NewTry(body ...Stmt) *Try {
	return &Try{Body: body}
}

// Catch appends an except clause.
func (t *Try) Catch(clause string, body ...Stmt) *Try {
	t.Excepts = append(t.Excepts, Except{Clause: clause, Body: body})
	return t
}

// Always sets the finally body.
func (t *Try) Always(body ...Stmt) *Try {
	t.Finally = body
	return t
}

func (Line) stmt()    {}
func (Comment) stmt() {}
func (Blank) stmt()   {}
func (Raw) stmt()     {}
func (*Block) stmt()  {}
func (*If) stmt()     {}
func (*Try) stmt()    {}
