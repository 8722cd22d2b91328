package asp

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is one argument of an atom.
type Term interface {
	renderTerm() string
}

// Number is an integer constant.
type Number int

func (n Number) renderTerm() string { return strconv.Itoa(int(n)) }

// Symbol is a program constant or a variable.
type Symbol string

func (s Symbol) renderTerm() string { return string(s) }

// Str is a quoted string constant.
type Str string

func (s Str) renderTerm() string { return `"` + string(s) + `"` }

// Range is an inclusive interval term `a..b`.
type Range struct {
	From int
	To   int
}

func (r Range) renderTerm() string {
	return fmt.Sprintf("%d..%d", r.From, r.To)
}

// Pool is a semicolon-joined alternative term.
type Pool []Term

func (p Pool) renderTerm() string {
	parts := make([]string, len(p))
	for i, term := range p {
		parts[i] = term.renderTerm()
	}
	return strings.Join(parts, ";")
}

// Expr is an arithmetic term kept in textual form, e.g. `T..T+H-1`.
type Expr string

func (e Expr) renderTerm() string { return string(e) }

// Atom is a predicate applied to terms.
type Atom struct {
	Predicate string
	Args      []Term
}

// NewAtom builds an atom.
func NewAtom(predicate string, args ...Term) Atom {
	return Atom{Predicate: predicate, Args: args}
}

func (a Atom) String() string {
	if len(a.Args) == 0 {
		return a.Predicate
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.renderTerm()
	}
	return a.Predicate + "(" + strings.Join(parts, ",") + ")"
}

func (a Atom) renderLiteral() string { return a.String() }

// Literal is one element of a rule body: an atom or a built-in comparison.
type Literal interface {
	renderLiteral() string
}

// Compare is a built-in comparison literal, e.g. `R1 != R2`.
type Compare string

func (c Compare) renderLiteral() string { return string(c) }

// Statement is one line of the program.
type Statement interface {
	Render() string
}

// Fact is an unconditional ground statement, optionally annotated.
type Fact struct {
	Atom    Atom
	Comment string
}

func (f Fact) Render() string {
	if f.Comment == "" {
		return f.Atom.String() + "."
	}
	return f.Atom.String() + ". % " + f.Comment
}

// Rule derives its head whenever the body holds.
type Rule struct {
	Head Atom
	Body []Literal
}

func (r Rule) Render() string {
	return r.Head.String() + " :- " + renderBody(r.Body) + "."
}

// Constraint is an integrity constraint: the body may never hold.
type Constraint struct {
	Body []Literal
}

func (c Constraint) Render() string {
	return ":- " + renderBody(c.Body) + "."
}

// ChoiceRule generates between Lower and Upper instances of Atom over the
// bindings of Condition, for every model of the body.
type ChoiceRule struct {
	Lower     int
	Upper     int
	Atom      Atom
	Condition Atom
	Body      []Literal
}

func (c ChoiceRule) Render() string {
	head := fmt.Sprintf("%d { %s : %s } %d", c.Lower, c.Atom, c.Condition, c.Upper)
	if len(c.Body) == 0 {
		return head + "."
	}
	return head + " :- " + renderBody(c.Body) + "."
}

// Optimize is a #minimize or #maximize directive over weighted tuples.
type Optimize struct {
	Maximize  bool
	Weight    string
	Condition Atom
}

func (o Optimize) Render() string {
	directive := "#minimize"
	if o.Maximize {
		directive = "#maximize"
	}
	return fmt.Sprintf("%s { %s : %s }.", directive, o.Weight, o.Condition)
}

// Show restricts the atoms reported by the solver.
type Show struct {
	Predicate string
	Arity     int
}

func (s Show) Render() string {
	return fmt.Sprintf("#show %s/%d.", s.Predicate, s.Arity)
}

func renderBody(body []Literal) string {
	parts := make([]string, len(body))
	for i, literal := range body {
		parts[i] = literal.renderLiteral()
	}
	return strings.Join(parts, ", ")
}

// Program is the ordered, sectioned logic program.
type Program struct {
	sections [][]Statement
}

// AddSection appends a section, dropping statements whose rendered text was
// already emitted in the same section.
func (p *Program) AddSection(statements []Statement) {
	seen := make(map[string]bool, len(statements))
	var unique []Statement
	for _, statement := range statements {
		text := statement.Render()
		if seen[text] {
			continue
		}
		seen[text] = true
		unique = append(unique, statement)
	}
	p.sections = append(p.sections, unique)
}

// Sections exposes the statement groups for structural inspection.
func (p *Program) Sections() [][]Statement {
	return p.sections
}

// Statements flattens all sections in order.
func (p *Program) Statements() []Statement {
	var all []Statement
	for _, section := range p.sections {
		all = append(all, section...)
	}
	return all
}

// Text renders the program: sections separated by a blank line, terminated
// by a newline. The output is deterministic for identical inputs.
func (p *Program) Text() string {
	rendered := make([]string, 0, len(p.sections))
	for _, section := range p.sections {
		if len(section) == 0 {
			continue
		}
		lines := make([]string, len(section))
		for i, statement := range section {
			lines[i] = statement.Render()
		}
		rendered = append(rendered, strings.Join(lines, "\n"))
	}
	return strings.Join(rendered, "\n\n") + "\n"
}
