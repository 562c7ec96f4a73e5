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

package crew

import (
	"math"
	"strconv"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// Never is the Due hour of a machine that won't move on its own.
const Never = math.MaxInt

// Machine is an agent's place in one condition's natural history.
//
// An import agent is a Machine with a negative Agent.
type Machine struct {
	Id    string `json:"id,omitempty"`
	Agent int    `json:"agent"`
	Cond  int    `json:"cond"`

	// State is -1 before the machine has entered any state.
	State int `json:"state"`

	// Entered is the sim hour State was entered.
	Entered int `json:"entered"`

	// Due is the sim hour of the next transition or Never.
	Due int `json:"due"`
}

// MachineId is the id of the agent's machine for the condition.
func MachineId(agent, cond int) string {
	return strconv.Itoa(agent) + "/" + strconv.Itoa(cond)
}

func NewMachine(agent, cond int) *Machine {
	return &Machine{
		Id:      MachineId(agent, cond),
		Agent:   agent,
		Cond:    cond,
		State:   -1,
		Entered: -1,
	}
}

// Copy returns a new Machine with the same fields.
func (m *Machine) Copy() *Machine {
	acc := *m
	return &acc
}

// IsImport reports whether the machine is a condition's import agent.
func (m *Machine) IsImport() bool {
	return m.Agent < 0
}

// IsDue reports whether the machine should move at the hour.
func (m *Machine) IsDue(hour int) bool {
	return m.Due != Never && m.Due <= hour
}

// wait sets Due from a dwell time.
func (m *Machine) wait(hour, dwell int) {
	if core.Forever <= dwell {
		m.Due = Never
		return
	}
	m.Due = hour + dwell
}
