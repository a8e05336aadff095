package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/statechart"
)

// DOTGenerator generates Graphviz DOT representations of statechart templates.
// Regions are drawn as clusters inside their parent state's cluster.
type DOTGenerator struct {
	template *statechart.Template
	active   *statechart.StateConfiguration
	options  DOTOptions

	activeStates map[statechart.StateID]bool
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowEvents      bool
	ShowGuards      bool
	ShowActions     bool
	RankDirection   string // "TB", "LR", "BT", "RL"
	NodeShape       string
	FillColor       string
	ActiveFillColor string
	HistoryLabel    string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowEvents:      true,
		ShowGuards:      true,
		ShowActions:     true,
		RankDirection:   "TB",
		NodeShape:       "box",
		FillColor:       "lightblue",
		ActiveFillColor: "lightgreen",
		HistoryLabel:    "(H)",
	}
}

// NewDOTGenerator creates a new DOT generator for the given template
func NewDOTGenerator(t *statechart.Template, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		template: t,
		options:  opts,
	}
}

// WithActive highlights the states designated by c, typically a machine's
// ActiveStateConfiguration
func (g *DOTGenerator) WithActive(c *statechart.StateConfiguration) *DOTGenerator {
	g.active = c
	return g
}

// Generate creates a DOT representation of the template
func (g *DOTGenerator) Generate() (string, error) {
	if g.template == nil {
		return "", fmt.Errorf("no template to render")
	}
	if g.active != nil && g.active.Template() != g.template {
		return "", fmt.Errorf("active configuration belongs to another template")
	}

	g.activeStates = make(map[statechart.StateID]bool)
	if g.active != nil {
		g.active.Walk(func(_ *statechart.Region, s *statechart.State) {
			g.activeStates[s.ID()] = true
		})
	}

	var dot strings.Builder
	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString("  compound=true;\n")
	dot.WriteString(fmt.Sprintf("  node [shape=%s style=\"rounded,filled\" fillcolor=%s];\n", g.options.NodeShape, g.options.FillColor))
	dot.WriteString("  edge [fontsize=10];\n\n")

	dot.WriteString("  // States\n")
	g.writeRegion(&dot, g.template.Root(), "  ")

	dot.WriteString("\n  // Transitions\n")
	g.writeTransitions(&dot)

	dot.WriteString("}\n")
	return dot.String(), nil
}

func (g *DOTGenerator) writeRegion(dot *strings.Builder, r *statechart.Region, indent string) {
	label := fmt.Sprintf("R%d", r.SlotIndex())
	if r.HasHistory() {
		label += " " + g.options.HistoryLabel
	}

	dot.WriteString(fmt.Sprintf("%ssubgraph cluster_r%d {\n", indent, r.ID()))
	inner := indent + "  "
	dot.WriteString(fmt.Sprintf("%slabel=\"%s\";\n", inner, label))
	dot.WriteString(fmt.Sprintf("%sstyle=dashed;\n", inner))

	initial := g.template.State(r.InitialState())
	dot.WriteString(fmt.Sprintf("%s\"__initial_r%d\" [shape=point fillcolor=black width=0.15];\n", inner, r.ID()))
	dot.WriteString(fmt.Sprintf("%s\"__initial_r%d\" -> \"%s\";\n", inner, r.ID(), initial.Name()))

	for _, id := range r.States() {
		g.writeState(dot, g.template.State(id), inner)
	}
	dot.WriteString(indent + "}\n")
}

func (g *DOTGenerator) writeState(dot *strings.Builder, s *statechart.State, indent string) {
	fill := g.options.FillColor
	if g.activeStates[s.ID()] {
		fill = g.options.ActiveFillColor
	}
	label := s.Name()
	if g.options.ShowActions {
		label += actionSummary(s)
	}

	if s.IsBase() {
		dot.WriteString(fmt.Sprintf("%s\"%s\" [fillcolor=%s label=\"%s\"];\n", indent, s.Name(), fill, label))
		return
	}

	dot.WriteString(fmt.Sprintf("%ssubgraph cluster_s%d {\n", indent, s.ID()))
	inner := indent + "  "
	dot.WriteString(fmt.Sprintf("%slabel=\"%s\";\n", inner, s.Name()))
	dot.WriteString(fmt.Sprintf("%sstyle=\"rounded,filled\";\n", inner))
	dot.WriteString(fmt.Sprintf("%sfillcolor=%s;\n", inner, fill))
	dot.WriteString(fmt.Sprintf("%s\"%s\" [shape=plaintext fillcolor=%s label=\"%s\"];\n", inner, s.Name(), fill, label))
	for _, sub := range s.Regions() {
		g.writeRegion(dot, g.template.Region(sub), inner)
	}
	dot.WriteString(indent + "}\n")
}

// writeTransitions draws one edge per target base state of each transition
func (g *DOTGenerator) writeTransitions(dot *strings.Builder) {
	g.template.Walk(func(_ *statechart.Region, s *statechart.State) {
		for _, id := range s.Transitions() {
			tr := g.template.Transition(id)
			label := escape(g.transitionLabel(tr))
			tr.Target().Walk(func(_ *statechart.Region, target *statechart.State) {
				if !isLeafOf(tr.Target(), target) {
					return
				}
				dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n", s.Name(), target.Name(), label))
			})
		}
	})
}

// isLeafOf reports whether no sub-region of s is designated in c
func isLeafOf(c *statechart.StateConfiguration, s *statechart.State) bool {
	for _, sub := range s.Regions() {
		if c.StateIn(sub) != statechart.Wildcard {
			return false
		}
	}
	return true
}

func (g *DOTGenerator) transitionLabel(tr *statechart.Transition) string {
	label := tr.Name()
	if g.options.ShowEvents {
		if tr.IsCompletion() {
			label += "\\n[completion]"
		} else {
			label += fmt.Sprintf("\\n%v", tr.TriggerEvent())
		}
	}
	if g.options.ShowGuards && tr.HasGuard() {
		label += " [guard]"
	}
	if g.options.ShowActions && tr.HasAction() {
		label += " / action"
	}
	return label
}

func actionSummary(s *statechart.State) string {
	var parts []string
	if s.HasEntryAction() {
		parts = append(parts, "entry")
	}
	if s.HasExitAction() {
		parts = append(parts, "exit")
	}
	if s.HasDoAction() {
		parts = append(parts, "do")
	}
	if len(parts) == 0 {
		return ""
	}
	return "\\n" + strings.Join(parts, " / ")
}

// escape quotes in user supplied event values; names are identifiers
func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(t *statechart.Template, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(t, options...),
	}
}

// Generate creates an SVG representation of the template
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation of the template
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
