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
	"context"
	"fmt"
	"io"

	md "github.com/russross/blackfriday/v2"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
)

// RenderHTML writes a condition's states and rules as an HTML table.
// Docs are Markdown.
func RenderHTML(h *history.History, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}
	rules := func(class string, rs []*core.Rule) {
		if len(rs) == 0 {
			return
		}
		f(`<div class="%s"><table>`, class)
		for _, r := range rs {
			f(`<tr><td><code>%s</code></td></tr>`, html(r.Text))
		}
		f(`</table></div>`)
	}

	f(`<div class="condition" id="%s">`, h.Name)
	f(`<h2>%s</h2>`, h.Name)
	f(`<div class="conditionDoc doc">%s</div>`, md.Run([]byte(h.Doc)))
	if h.Exposure != nil {
		f(`<div class="exposure"><code>%s</code></div>`, html(h.Exposure.Text))
	}

	f(`<div class="states"><table>`)
	for _, s := range h.States {
		id := h.Name + "." + s.Name
		f(`<tr class="state"><td><span id="%s" class="stateName">%s</span></td><td>`, id, s.Name)
		if s.Doc != "" {
			f(`<div class="stateDoc doc">%s</div>`, md.Run([]byte(s.Doc)))
		}
		var flags []string
		if s.ID == h.Start {
			flags = append(flags, "start")
		}
		if s.ID == h.ImportStart {
			flags = append(flags, "import start")
		}
		if s.Dormant {
			flags = append(flags, "dormant")
		}
		if s.Fatal {
			flags = append(flags, "fatal")
		}
		if s.Maternity {
			flags = append(flags, "maternity")
		}
		for _, flag := range flags {
			f(`<span class="flag">%s</span>`, flag)
		}
		if s.Wait != nil {
			rules("wait", []*core.Rule{s.Wait})
		}
		for to, rs := range s.Next {
			if len(rs) == 0 {
				continue
			}
			f(`<div class="next">to <a href="#%s.%s"><code>%s</code></a></div>`, h.Name, h.States[to].Name, h.States[to].Name)
			rules("nextRules", rs)
		}
		if s.Default != s.ID {
			f(`<div class="default">default <a href="#%s.%s"><code>%s</code></a></div>`,
				h.Name, h.States[s.Default].Name, h.States[s.Default].Name)
		}
		rules("actions", s.Actions)
		rules("schedule", s.Schedule)
		rules("imports", s.Imports)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	if unused := h.Unused(); 0 < len(unused) {
		f(`<div class="unused"><h3>Unused rules</h3>`)
		rules("unusedRules", unused)
		f(`</div>`)
	}
	f(`</div>`)

	return nil
}

// RenderPage writes a whole HTML page for the Program: the model's
// doc and then each condition.  With includeGraph, each condition
// gets a Mermaid graph.
func RenderPage(p *model.Program, out io.Writer, cssFiles []string, includeGraph bool) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/model-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, p.Model.Name)

	if includeGraph {
		fmt.Fprintf(out, `
  <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
  <script>mermaid.initialize({startOnLoad:true});</script>
`)
	}

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, p.Model.Name)

	fmt.Fprintf(out, "<div class=\"modelDoc doc\">%s</div>\n", md.Run([]byte(p.Model.Doc)))

	for _, h := range p.Histories {
		if includeGraph {
			fmt.Fprintf(out, `<pre class="mermaid">`+"\n")
			if err := mermaid(h, out, nil, "", ""); err != nil {
				return err
			}
			fmt.Fprintf(out, "</pre>\n")
		}
		if err := RenderHTML(h, out); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderPage loads and compiles a model file and renders it
// with RenderPage.
func ReadAndRenderPage(filename string, cssFiles []string, out io.Writer, includeGraph bool) error {
	m, err := model.Load(filename)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := m.Compile(ctx)
	if err != nil {
		return err
	}

	return RenderPage(p, out, cssFiles, includeGraph)
}
