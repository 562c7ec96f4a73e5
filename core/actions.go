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

package core

// Action identifies what an action rule does.
//
// The order is fixed.  Diagnostics and stored transition records use
// the numeric ids.
type Action int

const (
	NoAction Action = iota - 1
	ActWait
	ActWaitUntil
	ActGiveBirth
	ActDie
	ActDieOld
	ActSus
	ActTrans
	ActJoin
	ActQuit
	ActAddEdgeFrom
	ActAddEdgeTo
	ActDeleteEdgeFrom
	ActDeleteEdgeTo
	ActSet
	ActSetList
	ActSetState
	ActChangeState
	ActSetWeight
	ActSetSus
	ActSetTrans
	ActReport
	ActAbsent
	ActPresent
	ActClose
	ActRandomizeNetwork
	ActImportCount
	ActImportPerCapita
	ActImportLocation
	ActImportCensusTract
	ActImportAges
	ActCountAllImportAttempts
	ActImportList
)

var actionNames = []string{
	"wait",
	"wait_until",
	"give_birth",
	"die",
	"fatal",
	"sus",
	"trans",
	"join",
	"quit",
	"add_edge_from",
	"add_edge_to",
	"delete_edge_from",
	"delete_edge_to",
	"set",
	"set_list",
	"set_state",
	"change_state",
	"set_weight",
	"set_sus",
	"set_trans",
	"report",
	"absent",
	"present",
	"close",
	"randomize_network",
	"import_count",
	"import_per_capita",
	"import_location",
	"import_census_tract",
	"import_ages",
	"count_all_import_attempts",
	"import_list",
}

// actionAliases are other spellings that name the same Action.
var actionAliases = map[string]Action{
	"die_old": ActDieOld,
}

// ParseAction returns the Action with the given name.
func ParseAction(name string) (Action, bool) {
	for i, s := range actionNames {
		if s == name {
			return Action(i), true
		}
	}
	if a, have := actionAliases[name]; have {
		return a, true
	}
	return NoAction, false
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "none"
	}
	return actionNames[a]
}

// IsImport reports whether the Action sets an import parameter
// rather than doing something to an agent.
func (a Action) IsImport() bool {
	return ActImportCount <= a && a <= ActImportList
}

// IsSchedule reports whether the Action changes group schedules
// (absent, present, close).
func (a Action) IsSchedule() bool {
	return a == ActAbsent || a == ActPresent || a == ActClose
}

// IsFatal reports whether the Action kills the agent.
func (a Action) IsFatal() bool {
	return a == ActDie || a == ActDieOld
}

// IsEdge reports whether the Action adds or deletes network edges.
func (a Action) IsEdge() bool {
	return ActAddEdgeFrom <= a && a <= ActDeleteEdgeTo
}
