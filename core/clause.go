package core

import (
	"strings"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/scan"
)

// Clause is a conjunction of Predicates.
type Clause struct {
	Text       string
	Predicates []*Predicate
}

// CompileClause compiles comma-separated predicates.  Empty text is
// a Clause that is always true.
func CompileClause(reg *Registry, text string) (*Clause, error) {
	c := &Clause{Text: text}
	s := scan.DeleteSpaces(text)
	if s == "" {
		return c, nil
	}
	if err := scan.Balanced(s); err != nil {
		return nil, parseErr(text, err.Error())
	}
	s = scan.ReplaceTopLevel(s, ',', ';')
	for _, p := range strings.Split(s, ";") {
		pred, err := CompilePredicate(reg, p)
		if err != nil {
			return nil, err
		}
		c.Predicates = append(c.Predicates, pred)
	}
	return c, nil
}

// Eval is the AND of the Predicates from left to right.  Evaluation
// stops at the first false Predicate.
func (c *Clause) Eval(env *Env, a, other Agent) bool {
	for _, p := range c.Predicates {
		if !p.Eval(env, a, other) {
			return false
		}
	}
	return true
}

func (c *Clause) String() string {
	acc := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		acc[i] = p.String()
	}
	return strings.Join(acc, ",")
}
