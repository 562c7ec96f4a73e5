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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/tools"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// condition finds the named history.
func condition(p *model.Program, name string) (*history.History, error) {
	h := p.History(name)
	if h == nil {
		return nil, fmt.Errorf("no condition %s", name)
	}
	return h, nil
}

func newDotCmd(o *options) *cobra.Command {
	var (
		from, to string
		png      string
	)
	cmd := &cobra.Command{
		Use:   "dot COND",
		Short: "Write a condition's natural history as Graphviz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			h, err := condition(p, args[0])
			if err != nil {
				return err
			}
			if png != "" {
				filename, err := tools.PNG(h, png, from, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", filename)
				return nil
			}
			return tools.Dot(h, nopCloser{cmd.OutOrStdout()}, from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "state to highlight as the origin")
	cmd.Flags().StringVar(&to, "to", "", "state to highlight as the destination")
	cmd.Flags().StringVar(&png, "png", "", "basename for .dot and .png files (needs Graphviz)")
	return cmd
}

func newMermaidCmd(o *options) *cobra.Command {
	var (
		from, to string
		opts     tools.MermaidOpts
	)
	cmd := &cobra.Command{
		Use:   "mermaid COND",
		Short: "Write a condition's natural history as a Mermaid flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), false)
			if err != nil {
				return err
			}
			h, err := condition(p, args[0])
			if err != nil {
				return err
			}
			return tools.Mermaid(h, nopCloser{cmd.OutOrStdout()}, &opts, from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "state to highlight as the origin")
	cmd.Flags().StringVar(&to, "to", "", "state to highlight as the destination")
	cmd.Flags().BoolVar(&opts.ShowProbs, "probs", false, "label next edges with their probabilities")
	cmd.Flags().StringVar(&opts.ActionFill, "action-fill", "", "fill color for states with actions")
	cmd.Flags().StringVar(&opts.ActionClass, "action-class", "", "class for states with actions")
	return cmd
}

func newHTMLCmd(o *options) *cobra.Command {
	var (
		css   []string
		graph bool
	)
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Render the model as an HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tools.ReadAndRenderPage(o.model, css, cmd.OutOrStdout(), graph)
		},
	}
	cmd.Flags().StringSliceVar(&css, "css", nil, "stylesheet URLs")
	cmd.Flags().BoolVar(&graph, "graph", true, "include Mermaid graphs")
	return cmd
}
