/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"context"
	"encoding/json"
	"os"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
)

// JSONStore is a primitive facility to store crew state as JSON in a
// file.
//
// Not glamorous or efficient.
type JSONStore struct {
	// StateOutputFilename, if not empty, will be the filename
	// writing state as JSON.
	StateOutputFilename string

	// StateInputFilename optionally gives a filename that
	// contains state to return when Read is called.
	StateInputFilename string

	State map[string]*crew.Machine
}

func NewJSONStore() *JSONStore {
	return &JSONStore{
		StateOutputFilename: "state.json",
	}
}

// Read reads s.StateInputFilename, which should contain a JSON
// representation of the crew's machines.
func (s *JSONStore) Read(ctx context.Context) (map[string]*crew.Machine, error) {
	if s.StateInputFilename != "" {
		js, err := os.ReadFile(s.StateInputFilename)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(js, &s.State); err != nil {
			return nil, err
		}
		return s.State, nil

	}
	return make(map[string]*crew.Machine), nil
}

// Update takes a copy of the crew's machines.
func (s *JSONStore) Update(c *crew.Crew) {
	s.State = c.Copy().Machines
}

// WriteState writes the machines as JSON.
func (s *JSONStore) WriteState(ctx context.Context) error {
	if s.State != nil && s.StateOutputFilename != "" {
		js, err := json.MarshalIndent(&s.State, "", "  ")
		if err != nil {
			return err
		}
		if err = os.WriteFile(s.StateOutputFilename, js, 0644); err != nil {
			return err
		}
	}
	return nil
}
