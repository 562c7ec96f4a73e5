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

// Command fredrules checks, renders, and runs rule models.
//
//	fredrules -m seir.yaml check
//	fredrules -m seir.yaml eval 'age*2'
//	fredrules -m seir.yaml mermaid INF
//	fredrules -m seir.yaml run --days 30 --bolt runs.db
//	fredrules -m seir.yaml expect seir.test.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// errHard reports that a model has rules that didn't compile.
var errHard = errors.New("model has errors")

type options struct {
	model   string
	verbose bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "fredrules",
		Short:         "Check, render, and run rule models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := util.NewLogger(o.verbose)
			if err != nil {
				return err
			}
			util.SetLogger(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = util.Logger().Sync()
		},
	}
	root.PersistentFlags().StringVarP(&o.model, "model", "m", "model.yaml", "model filename")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newCheckCmd(o),
		newEvalCmd(o),
		newAnalyzeCmd(o),
		newDotCmd(o),
		newMermaidCmd(o),
		newHTMLCmd(o),
		newRunCmd(o),
		newExpectCmd(o),
		newYAMLToJSONCmd(),
	)
	return root
}

// load reads and compiles the model.  Hard errors are logged by
// Compile and fail the load only when strict.
func (o *options) load(ctx context.Context, strict bool) (*model.Program, error) {
	m, err := model.Load(o.model)
	if err != nil {
		return nil, err
	}
	p, err := m.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if hard := p.HardErrors(); strict && 0 < len(hard) {
		return nil, fmt.Errorf("%s: %w (%d)", o.model, errHard, len(hard))
	}
	return p, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
