package core

import (
	"math"
	"strings"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/scan"
)

// Preference weighs candidate agents for select(list, pref(...)).
type Preference struct {
	Expressions []*Expression
}

// CompilePreference compiles the comma-separated expressions of a
// pref(...).  An empty text gives a Preference with equal weights.
func CompilePreference(reg *Registry, text string) (*Preference, error) {
	p := &Preference{}
	if text == "" {
		return p, nil
	}
	parts, err := scan.TopLevelSplit(text, ',')
	if err != nil {
		return nil, parseErr(text, err.Error())
	}
	for _, s := range parts {
		e, err := CompileExpression(reg, s)
		if err != nil {
			return nil, err
		}
		p.Expressions = append(p.Expressions, e)
	}
	return p, nil
}

func (p *Preference) String() string {
	acc := make([]string, len(p.Expressions))
	for i, e := range p.Expressions {
		acc[i] = e.String()
	}
	return "pref(" + strings.Join(acc, ",") + ")"
}

// Value is the unnormalized weight of candidate b for agent a:
// (1 + sum of positive values) / (1 + sum of |other values|).
func (p *Preference) Value(env *Env, a, b Agent) float64 {
	num, den := 1.0, 1.0
	for _, e := range p.Expressions {
		v := e.Eval(env, a, b)
		if 0 < v {
			num += v
		} else {
			den += math.Abs(v)
		}
	}
	return num / den
}

// Select picks one candidate with a single draw from a cumulative
// distribution of Values.  Returns nil when there are no candidates.
func (p *Preference) Select(env *Env, a Agent, candidates []Agent) Agent {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	cdf := make([]float64, n)
	total := 0.0
	for i, b := range candidates {
		cdf[i] = p.Value(env, a, b)
		total += cdf[i]
	}
	for i := range cdf {
		if 0 < total {
			cdf[i] /= total
		} else {
			cdf[i] = 1 / float64(n)
		}
		if 0 < i {
			cdf[i] += cdf[i-1]
		}
	}
	r := env.Rand.Float64()
	for i, c := range cdf {
		if r <= c {
			return candidates[i]
		}
	}
	return candidates[n-1]
}
