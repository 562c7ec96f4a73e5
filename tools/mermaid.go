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

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

type MermaidOpts struct {
	// ShowProbs will result in a next edge label that's the
	// rule's probability expression (if any).
	ShowProbs bool `json:"showProbs"`

	// ActionFill is the fill color of for states with actions.
	// Does not apply if ActionClass is set.
	ActionFill string `json:"actionFill,omitempty"`

	// ActionClass will be the CSS class for states with actions.
	ActionClass string `json:"actionClass,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given natural history.
func Mermaid(h *history.History, w io.WriteCloser, opts *MermaidOpts, fromState, toState string) error {
	if err := mermaid(h, w, opts, fromState, toState); err != nil {
		return err
	}
	return w.Close()
}

func mermaid(h *history.History, w io.Writer, opts *MermaidOpts, fromState, toState string) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowProbs:  true,
			ActionFill: "#bcf2db",
		}
	}

	util.Logf("processing %d states", len(h.States))

	fmt.Fprintf(w, "graph TB\n")

	nid := func(s *history.State) string {
		return fmt.Sprintf("n%d", s.ID)
	}

	for _, s := range h.States {
		if len(s.Actions) == 0 {
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid(s), s.Name)
			continue
		}
		fmt.Fprintf(w, "  %s[\"%s\"]\n", nid(s), s.Name)
		if opts.ActionClass != "" {
			fmt.Fprintf(w, "  class %s %s\n", nid(s), opts.ActionClass)
		} else if opts.ActionFill != "" {
			fmt.Fprintf(w, "  style %s fill:%s\n", nid(s), opts.ActionFill)
		}
	}
	if s := h.States; 0 <= h.ExposedState {
		fmt.Fprintf(w, "  %s -. exposed .-> %s\n", nid(s[h.Start]), nid(s[h.ExposedState]))
	}

	for _, s := range h.States {
		for to, rs := range s.Next {
			for _, r := range rs {
				label := ""
				if opts.ShowProbs && r.Expr != nil {
					label = fmt.Sprintf(`-- "%s"`, strings.Replace(r.Expr.String(), `"`, `'`, -1))
				}
				fmt.Fprintf(w, "  %s %s --> %s\n", nid(s), label, nid(h.States[to]))
			}
		}
		if s.Default != s.ID {
			fmt.Fprintf(w, "  %s -- default --> %s\n", nid(s), nid(h.States[s.Default]))
		}
	}

	for _, s := range h.States {
		if s.Name == toState {
			fmt.Fprintf(w, "  style %s stroke:#f00\n", nid(s))
		}
		if s.Name == fromState {
			fmt.Fprintf(w, "  style %s stroke-dasharray: 5 5\n", nid(s))
		}
	}

	fmt.Fprintf(w, "\n")
	util.Logf("mermaid gen done")

	return nil
}
