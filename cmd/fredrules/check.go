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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/jsccast/yaml"
	"github.com/spf13/cobra"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/tools"
)

func newCheckCmd(o *options) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile the model and report problems",
		Long: `Compiles every rule in the model and prints each error and
each rule that no condition uses.  Exits non-zero when any rule has a
hard error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dump {
				return tools.DumpRules(p.Rules, out)
			}
			for _, err := range p.Errors {
				level := "error"
				if core.IsWarning(err) {
					level = "warning"
				}
				fmt.Fprintf(out, "%s: %s\n", level, err)
			}
			for _, r := range p.Unused() {
				fmt.Fprintf(out, "unused: %s\n", r.Source)
			}
			fmt.Fprintf(out, "%d rules, %d errors\n", len(p.Rules), len(p.Errors))
			if 0 < len(p.HardErrors()) {
				return errHard
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "write a YAML summary of every rule")
	return cmd
}

func newEvalCmd(o *options) *cobra.Command {
	var (
		agent int
		day   int
		hour  int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "eval EXPR",
		Short: "Evaluate an expression against the model's population",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			e, err := core.CompileExpression(p.Registry, args[0])
			if err != nil {
				return err
			}
			w, err := p.World()
			if err != nil {
				return err
			}
			w.SetClock(day, hour)
			var a core.Agent
			if agent != 0 {
				if a = w.Agent(agent); a == nil {
					return fmt.Errorf("no agent %d", agent)
				}
			}
			env := &core.Env{
				World: w,
				Rand:  rand.New(rand.NewSource(seed)),
			}
			out := cmd.OutOrStdout()
			if e.IsList() {
				fmt.Fprintf(out, "%v\n", e.EvalList(env, a, nil))
			} else {
				fmt.Fprintf(out, "%v\n", e.Eval(env, a, nil))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&agent, "agent", 0, "id of the agent to evaluate for")
	cmd.Flags().IntVar(&day, "day", 0, "sim day")
	cmd.Flags().IntVar(&hour, "hour", 0, "hour of the day")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func newAnalyzeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Report the structure of each condition's natural history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			as, err := tools.AnalyzeProgram(p)
			if err != nil {
				return err
			}
			bs, err := yaml.Marshal(as)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bs)
			return err
		},
	}
}

func newYAMLToJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "yamltojson",
		Short: "Convert YAML on stdin (a model, say) to JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			var x interface{}
			if err := yaml.Unmarshal(bs, &x); err != nil {
				return err
			}
			js, err := json.Marshal(x)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", js)
			return nil
		},
	}
}
