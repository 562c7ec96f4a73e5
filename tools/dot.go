package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// edgeLabel is what Dot shows on a next edge.
type edgeLabel struct {
	Prob string `yaml:"prob,omitempty"`
	If   string `yaml:"if,omitempty"`
}

func nextLabel(r *core.Rule) string {
	l := edgeLabel{}
	if r.Expr != nil {
		l.Prob = r.Expr.String()
	}
	if r.Clause != nil {
		l.If = r.Clause.String()
	}
	if l.Prob == "" && l.If == "" {
		return ""
	}
	bs, err := yaml.Marshal(&l)
	if err != nil {
		return err.Error()
	}
	return string(bs)
}

func html(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}

// firstSentence shortens long docs.
func firstSentence(doc string) string {
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return doc
}

// Dot makes a Graphviz dot file for the given natural history.
//
// The optional fromState and toState can be names of states during a
// transition.  If non-zero, then the edge between them will be red
// and so will toState.
func Dot(h *history.History, w io.WriteCloser, fromState, toState string) error {
	util.Logf("processing %d states", len(h.States))

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	for _, s := range h.States {
		label := html(s.Name)
		if s.Doc != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + html(firstSentence(s.Doc)) + "</FONT>"
		}
		var (
			fillcolor = "#99ddc8"
			color     = "black"
			shape     = "record"
			style     = "filled"
		)
		if 0 < len(s.Actions) || 0 < len(s.Schedule) || 0 < len(s.Imports) {
			shape = "note"
			var src []string
			for _, r := range s.Actions {
				src = append(src, r.ActionName+"("+r.Args+")")
			}
			for _, r := range s.Schedule {
				src = append(src, r.ActionName+"("+r.Args+")")
			}
			for _, r := range s.Imports {
				src = append(src, r.ActionName+"("+r.Args+")")
			}
			label += `<FONT POINT-SIZE="6"><BR/>` +
				strings.Join(strings.Split(html(strings.Join(src, "\n")), "\n"), `<BR ALIGN="LEFT"/>`) +
				`<BR ALIGN="LEFT"/></FONT>`
		}
		switch {
		case s.Fatal:
			fillcolor = "#aaaaaa"
		case s.ID == h.ImportStart:
			fillcolor = "#2d93ad"
		case s.Transient():
			fillcolor = "#52aa5e"
		}
		if toState == s.Name {
			color = "red"
			fillcolor = "#f98b8b"
		}
		if s.ID == h.Start {
			style += ",bold"
		}
		if s.Dormant {
			style += ",dashed"
		}
		fmt.Fprintf(w, "  %q [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			s.Name, shape, style, color, fillcolor, label)
	}

	edge := func(from, to *history.State, label, color string) {
		if fromState == from.Name && toState == to.Name {
			color = "red"
		}
		label = strings.Replace(html(label), "\n", `<BR ALIGN="LEFT"/>`, -1)
		fmt.Fprintf(w, "  %q -> %q [ color=\"%s\" label = <%s> ]\n", from.Name, to.Name, color, label)
	}

	if h.ExposedState >= 0 {
		edge(h.States[h.Start], h.States[h.ExposedState], "exposed", "orange")
	}
	for _, s := range h.States {
		for to, rs := range s.Next {
			for _, r := range rs {
				edge(s, h.States[to], nextLabel(r), "black")
			}
		}
		if s.Default != s.ID {
			edge(s, h.States[s.Default], "default", "gray")
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(h *history.History, basename string, fromState, toState string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(h, dotfile, fromState, toState); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
