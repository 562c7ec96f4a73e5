package core

import (
	"math"
)

// Eval evaluates the Expression for agent a.  other is the second
// agent for two-agent factors and "other:" references; it may be nil.
//
// A list-valued Expression evaluates to its first element, or 0 when
// empty.
func (e *Expression) Eval(env *Env, a, other Agent) float64 {
	switch e.kind {
	case exprNumber:
		return e.number
	case exprFactor:
		if e.useOther {
			return e.factor.Eval(env, other, a)
		}
		return e.factor.Eval(env, a, other)
	case exprSelect:
		return e.evalSelect(env, a, other)
	case exprValue:
		id := int(e.args[0].Eval(env, a, other))
		b := env.World.Agent(id)
		if b == nil {
			return 0
		}
		return e.args[1].Eval(env, b, nil)
	case exprDistance:
		return XYDistance(
			e.args[0].Eval(env, a, other),
			e.args[1].Eval(env, a, other),
			e.args[2].Eval(env, a, other),
			e.args[3].Eval(env, a, other))
	case exprOp:
		return e.evalOp(env, a, other)
	}
	if xs := e.EvalList(env, a, other); 0 < len(xs) {
		return xs[0]
	}
	return 0
}

func (e *Expression) evalSelect(env *Env, a, other Agent) float64 {
	ids := e.args[0].EvalList(env, a, other)
	if e.preference == nil {
		i := int(e.args[1].Eval(env, a, other))
		if i < 0 || len(ids) <= i {
			return Missing
		}
		return ids[i]
	}
	candidates := make([]Agent, 0, len(ids))
	for _, id := range ids {
		if b := env.World.Agent(int(id)); b != nil {
			candidates = append(candidates, b)
		}
	}
	if b := e.preference.Select(env, a, candidates); b != nil {
		return float64(b.ID())
	}
	return Missing
}

func (e *Expression) evalOp(env *Env, a, other Agent) float64 {
	x := e.args[0].Eval(env, a, other)
	var y float64
	if len(e.args) == 2 {
		y = e.args[1].Eval(env, a, other)
	}
	switch e.op {
	case opAdd:
		return x + y
	case opSub:
		return x - y
	case opMult:
		return x * y
	case opDiv:
		if y == 0 {
			return 0
		}
		return x / y
	case opDist:
		p, q := env.World.Place(int(x)), env.World.Place(int(y))
		if p == nil || q == nil {
			return NoDistance
		}
		return XYDistance(p.Latitude(), p.Longitude(), q.Latitude(), q.Longitude())
	case opEqual:
		if x == y {
			return 1
		}
		return 0
	case opMin:
		return math.Min(x, y)
	case opMax:
		return math.Max(x, y)
	case opUniform:
		return drawUniform(env.Rand, x, y)
	case opNormal:
		return drawNormal(env.Rand, x, y)
	case opLognormal:
		sigma := math.Log(y)
		if sigma == 0 {
			return x
		}
		return drawLognormal(env.Rand, math.Log(x), sigma)
	case opExponential:
		return drawExponential(env.Rand, x)
	case opGeometric:
		if x <= 0 {
			return 0
		}
		return drawGeometric(env.Rand, 1/x)
	case opPow:
		return math.Pow(x, y)
	case opLog:
		if x <= 0 {
			return LogOfNonPositive
		}
		return math.Log(x)
	case opExp:
		return math.Exp(x)
	case opAbs:
		return math.Abs(x)
	case opSin:
		return math.Sin(x)
	case opCos:
		return math.Cos(x)
	}
	return 0
}

// EvalList evaluates the Expression as an ordered list.  A scalar
// Expression gives a one-element list.
func (e *Expression) EvalList(env *Env, a, other Agent) []float64 {
	switch e.kind {
	case exprListVar:
		if e.global {
			return env.World.GlobalListVar(e.listVar)
		}
		b := a
		if e.useOther {
			b = other
		}
		if b == nil {
			return nil
		}
		return b.ListVar(e.listVar)
	case exprList:
		acc := e.args[0].EvalList(env, a, other)
		acc = append([]float64(nil), acc...)
		if len(e.args) == 2 {
			acc = append(acc, e.args[1].EvalList(env, a, other)...)
		}
		return acc
	case exprPool:
		return e.evalPool(a)
	case exprFilter:
		return e.evalFilter(env, a, other)
	}
	return []float64{e.Eval(env, a, other)}
}

func (e *Expression) evalPool(a Agent) []float64 {
	if a == nil {
		return nil
	}
	var (
		acc  []float64
		seen = make(map[int]bool)
	)
	for _, gt := range e.pool {
		g := a.Group(gt)
		if g == nil {
			continue
		}
		for _, id := range g.Members() {
			if !seen[id] {
				seen[id] = true
				acc = append(acc, float64(id))
			}
		}
	}
	return acc
}

func (e *Expression) evalFilter(env *Env, a, other Agent) []float64 {
	var (
		acc  []float64
		seen = make(map[float64]bool)
	)
	for _, id := range e.args[0].EvalList(env, a, other) {
		if seen[id] {
			continue
		}
		seen[id] = true
		b := env.World.Agent(int(id))
		if b == nil {
			continue
		}
		if e.clause.Eval(env, a, b) {
			acc = append(acc, id)
		}
	}
	return acc
}
