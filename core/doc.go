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

// Package core provides the rule language: its compiler and its
// evaluator.
//
// A rule is one line of text like
//
//	if state(INF.I) and(age>60) then next(Dead) with prob(0.5)
//
// The primary type is Rule, and the primary methods are Parse and
// Compile.  Parse splits the text into its clauses, and Compile
// resolves every name against a sealed Registry and builds the
// Clause, Predicate, and Expression trees that evaluation runs.
//
// Evaluation happens against an Env, which has a World (the read-only
// view of the population and the clock) and a Rand.  Nothing here
// changes the World.  Actions are described by compiled rules and
// carried out elsewhere.
//
// Errors are *ParseError or *UnknownName.  An UnknownName can be a
// warning, which means the rule is plausibly fine in a run that
// configures the name.  See IsWarning.
package core
