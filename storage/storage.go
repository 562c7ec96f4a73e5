/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package storage persists the transitions of simulation runs.
package storage

import (
	"context"
	"fmt"
)

// Transition is one agent's move from one state to another as
// recorded for a run.
type Transition struct {
	// Seq orders the transitions of a run.
	Seq int `json:"seq" db:"seq"`

	Day   int    `json:"day" db:"day"`
	Hour  int    `json:"hour" db:"hour"`
	Agent int    `json:"agent" db:"agent"`
	Cond  string `json:"cond" db:"cond"`
	From  string `json:"from" db:"from_state"`
	To    string `json:"to" db:"to_state"`

	// Dwell is the hours the agent will stay in To.
	Dwell int `json:"dwell" db:"dwell"`

	// Cause is "step", "exposure", "import", or "set_state".
	Cause string `json:"cause,omitempty" db:"cause"`
}

func (t *Transition) String() string {
	return fmt.Sprintf("%d %d:%02d agent %d %s %s->%s (%s)", t.Seq, t.Day, t.Hour%24, t.Agent, t.Cond, t.From, t.To, t.Cause)
}

// Storage is a persistence interface that's suitable for Crews.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	MakeRun(ctx context.Context, run string) error

	RemRun(ctx context.Context, run string) error

	// Read returns the run's transitions in Seq order.
	Read(ctx context.Context, run string) ([]*Transition, error)

	Write(ctx context.Context, run string, ts []*Transition) error
}
