/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package expect is a tool for testing models.
//
// You construct a Session, which is a sequence of Steps.  Each Step
// runs the model for some days and then checks the transitions that
// happened during those days and the census at the end.
//
// See ../../cmd/fredrules for command-line use.
package expect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// Output is a specification for transitions that are expected.
//
// Empty fields match anything.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Cond  string `json:"cond,omitempty" yaml:"cond,omitempty"`
	From  string `json:"from,omitempty" yaml:"from,omitempty"`
	To    string `json:"to,omitempty" yaml:"to,omitempty"`
	Cause string `json:"cause,omitempty" yaml:"cause,omitempty"`

	// Count, when positive, is the exact number of matching
	// transitions.  Otherwise at least one is required.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	// Inverted means that matching transitions aren't desired!
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`

	// Matched is written during processing.  Just for
	// diagnostics.
	Matched []*storage.Transition `json:"matched,omitempty" yaml:"-"`
}

// Matches reports whether the transition fits the Output.
func (o *Output) Matches(t *storage.Transition) bool {
	return (o.Cond == "" || o.Cond == t.Cond) &&
		(o.From == "" || o.From == t.From) &&
		(o.To == "" || o.To == t.To) &&
		(o.Cause == "" || o.Cause == t.Cause)
}

func (o *Output) check() error {
	n := len(o.Matched)
	switch {
	case o.Inverted && 0 < n:
		return fmt.Errorf("unwanted %s", o.Matched[0])
	case o.Inverted:
		return nil
	case 0 < o.Count && n != o.Count:
		return fmt.Errorf("%d matches but wanted %d", n, o.Count)
	case n == 0:
		return errors.New("no match")
	}
	return nil
}

func (o *Output) String() string {
	return fmt.Sprintf("%s %s->%s (%s)", o.Cond, o.From, o.To, o.Cause)
}

// Census is the number of living agents expected in a state at the
// end of a Step.
type Census struct {
	Cond  string `json:"cond" yaml:"cond"`
	State string `json:"state" yaml:"state"`
	Count int    `json:"count" yaml:"count"`
}

// Step runs the model for some days and then verifies what happened.
type Step struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Days is how many days to run.  Zero just checks.
	Days int `json:"days,omitempty" yaml:"days,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []*Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	Census []*Census `json:"census,omitempty" yaml:"census,omitempty"`

	// Globals are the expected values of global variables.
	Globals map[string]float64 `json:"globals,omitempty" yaml:"globals,omitempty"`
}

// Session is mostly a sequence of Steps.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Seed defaults to the model's seed.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Shards int `json:"shards,omitempty" yaml:"shards,omitempty"`

	Steps []*Step `json:"steps" yaml:"steps"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Failure reports what went wrong with a Step.
type Failure struct {
	Step int
	Doc  string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Doc, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// tap is the Emitter that feeds the current Step's OutputSet.
type tap struct {
	sync.Mutex
	outputs []*Output
	verbose bool
}

func (t *tap) Emit(ctx context.Context, e *crew.Event) error {
	t.Lock()
	defer t.Unlock()
	if t.verbose {
		util.Logger().Infof("%s", e.Transition)
	}
	for _, o := range t.outputs {
		if o.Matches(e.Transition) {
			o.Matched = append(o.Matched, e.Transition)
		}
	}
	return nil
}

// Run runs a fresh Crew for the Program through all the Steps.
//
// The first failing Step stops the Session and is returned as a
// *Failure.
func (s *Session) Run(ctx context.Context, p *model.Program) error {
	w, err := p.World()
	if err != nil {
		return err
	}
	seed := s.Seed
	if seed == 0 {
		seed = p.Model.Seed
	}
	c := crew.New("expect", p, w, seed)
	if 0 < s.Shards {
		c.Shards = s.Shards
	}
	t := &tap{verbose: s.Verbose}
	c.Emitter = t
	if err := c.Init(ctx); err != nil {
		return err
	}

	for i, step := range s.Steps {
		t.Lock()
		t.outputs = step.OutputSet
		for _, o := range step.OutputSet {
			o.Matched = nil
		}
		t.Unlock()

		if err := c.Run(ctx, step.Days); err != nil {
			return err
		}
		if err := s.check(c, step); err != nil {
			return &Failure{
				Step: i,
				Doc:  step.Doc,
				Err:  err,
			}
		}
		if s.Verbose {
			util.Logger().Infof("step %d passed at hour %d", i, c.Hour)
		}
	}
	return nil
}

func (s *Session) check(c *crew.Crew, step *Step) error {
	var errs []error
	for _, o := range step.OutputSet {
		if err := o.check(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o, err))
		}
	}

	reg := c.Program.Registry
	for _, want := range step.Census {
		cond := reg.ConditionID(want.Cond)
		if cond < 0 {
			errs = append(errs, fmt.Errorf("unknown condition %s", want.Cond))
			continue
		}
		if n := c.Census(cond)[want.State]; n != want.Count {
			errs = append(errs, fmt.Errorf("%s.%s has %d agents but wanted %d", want.Cond, want.State, n, want.Count))
		}
	}

	for name, want := range step.Globals {
		id := reg.GlobalVarID(name)
		if id < 0 {
			errs = append(errs, fmt.Errorf("unknown global variable %s", name))
			continue
		}
		if x := c.World.GlobalVar(id); x != want {
			errs = append(errs, fmt.Errorf("%s is %v but wanted %v", name, x, want))
		}
	}
	return errors.Join(errs...)
}
