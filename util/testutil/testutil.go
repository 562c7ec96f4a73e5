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

// Package testutil has fixtures shared by tests in several packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// When given anything else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			panic(err)
		}
		return v
	default:
		return x
	}
}

// SEIR is a small model with one condition, an import agent, and a
// population of ten in three households.
//
// The import agent exposes three agents on day 0.  Exposed agents
// become infectious after two days and recover (or, over 60, maybe
// die) three to five days later.
const SEIR = `
name: seir
doc: A small *SEIR* model.
start: "2020-03-15"
seed: 7
days: 30
placeTypes: [Household, School]
networks:
  - name: Friends
    undirected: true
vars: [score]
globalVars: [cases]
listVars: [contacts]
conditions:
  - name: INF
    doc: An influenza-like illness.
    start: S
    importStart: Import
    transmissibility: 1
    states:
      - name: S
        doc: Susceptible.
      - name: E
        doc: Exposed but not yet infectious.
      - name: I
        doc: Infectious.
      - name: R
        doc: Recovered.
      - name: Dead
        dormant: true
      - name: Import
      - name: Seeded
    rules:
      - if exposed(INF) then next(E)
      - if state(INF.E) then wait(48)
      - if state(INF.E) then next(I)
      - if state(INF.I) then wait(24*uniform(3,5))
      - if state(INF.I) and(age>60) then next(Dead) with prob(0.5)
      - if state(INF.I) then default(R)
      - if state(INF.I) then absent(School)
      - if state(INF.I) then set(score,score+1)
      - if state(INF.I) then set(cases,cases+1)
      - if state(INF.Dead) then die()
      - if state(INF.Import) then import_count(3)
      - if state(INF.Import) then wait(until_tomorrow)
      - if state(INF.Import) then next(Seeded)
rules:
  - if state(INF.R) then report(score)
population:
  places:
    - {id: 1, type: Household, lat: 40.44, lon: -79.99}
    - {id: 2, type: Household, lat: 40.45, lon: -80.01}
    - {id: 3, type: Household, lat: 40.46, lon: -80.02}
    - {id: 10, type: School}
  agents:
    - {id: 1, age: 40, sex: M, places: {Household: 1}, admin: [Household]}
    - {id: 2, age: 38, places: {Household: 1}}
    - {id: 3, age: 9, places: {Household: 1, School: 10}, traits: [student]}
    - {id: 4, age: 70, sex: M, places: {Household: 2}, traits: [retired]}
    - {id: 5, age: 68, places: {Household: 2}}
    - {id: 6, age: 30, places: {Household: 3}, traits: [employed]}
    - {id: 7, age: 31, sex: M, places: {Household: 3}, traits: [employed]}
    - {id: 8, age: 6, places: {Household: 3, School: 10}, traits: [student]}
    - {id: 9, age: 12, sex: M, places: {Household: 3, School: 10}, traits: [student]}
    - {id: 10, age: 80, places: {Household: 2}, traits: [retired]}
  edges:
    - {network: Friends, from: 1, to: 6}
    - {network: Friends, from: 4, to: 5, weight: 3}
`
