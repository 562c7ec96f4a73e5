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

package history

// StateSpec describes one state of a condition.
type StateSpec struct {
	Name string `json:"name" yaml:"name"`

	// Doc is optional documentation in Markdown.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Dormant states need no daily attention: an agent in one is
	// only looked at again when its dwell runs out.
	Dormant bool `json:"dormant,omitempty" yaml:",omitempty"`
}

// Spec describes a condition's natural history.
//
// Rules is the condition's rule text.  Rules for other conditions
// are allowed in a model but are ignored by the History of this
// condition.
type Spec struct {
	Name string `json:"name" yaml:"name"`

	// Doc is optional documentation in Markdown.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	States []*StateSpec `json:"states" yaml:"states"`

	// Start is the name of the state every agent starts in.  The
	// first state is the default.
	Start string `json:"start,omitempty" yaml:",omitempty"`

	// ImportStart is the state the condition's import agent starts
	// in.  Without one, the condition has no imports.
	ImportStart string `json:"importStart,omitempty" yaml:"importStart,omitempty"`

	Rules []string `json:"rules,omitempty" yaml:",omitempty"`

	// Transmissibility is the condition's base transmissibility.
	Transmissibility float64 `json:"transmissibility,omitempty" yaml:",omitempty"`
}

// StateNames returns the names of the states in order.
func (s *Spec) StateNames() []string {
	acc := make([]string, len(s.States))
	for i, st := range s.States {
		acc[i] = st.Name
	}
	return acc
}
