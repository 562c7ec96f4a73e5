package tools

import (
	"io"

	"gopkg.in/yaml.v2"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// RuleSummary is what DumpRules writes for each rule.
type RuleSummary struct {
	Text     string `yaml:"text"`
	Kind     string `yaml:"kind"`
	Cond     string `yaml:"cond,omitempty"`
	State    string `yaml:"state,omitempty"`
	Next     string `yaml:"next,omitempty"`
	Action   string `yaml:"action,omitempty"`
	Used     bool   `yaml:"used"`
	HiddenBy string `yaml:"hiddenBy,omitempty"`
	Error    string `yaml:"error,omitempty"`
	Warning  bool   `yaml:"warning,omitempty"`

	// Compiled is the canonical form of a compiled rule.
	Compiled string `yaml:"compiled,omitempty"`
}

// Summarize gives the RuleSummary for a rule.
func Summarize(r *core.Rule) *RuleSummary {
	s := &RuleSummary{
		Text:   r.Source,
		Kind:   r.Kind.String(),
		Cond:   r.Cond,
		State:  r.State,
		Next:   r.NextState,
		Action: r.ActionName,
		Used:   r.Used,
	}
	if r.HiddenBy != nil {
		s.HiddenBy = r.HiddenBy.Source
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
		s.Warning = core.IsWarning(r.Err)
	}
	if r.Compiled() {
		s.Compiled = r.String()
	}
	return s
}

// DumpRules writes a YAML list of RuleSummaries.
func DumpRules(rs []*core.Rule, w io.Writer) error {
	acc := make([]*RuleSummary, len(rs))
	for i, r := range rs {
		acc[i] = Summarize(r)
	}
	bs, err := yaml.Marshal(acc)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}
