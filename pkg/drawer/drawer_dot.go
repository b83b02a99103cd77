package drawer

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-octopus/internal/store"
	"github.com/askiada/go-octopus/pkg/model"
)

// DOTDrawer builds the node graph of a model. Vertices are keyed by node id.
type DOTDrawer struct {
	name  string
	store store.CustomStore[string, string]
	graph graph.Graph[string, string]
	nodes map[string]model.Node
}

func NewDOTDrawer(name string) *DOTDrawer {
	s := store.NewMemoryStore[string, string]()

	return &DOTDrawer{
		name:  name,
		store: s,
		graph: graph.NewWithStore(graph.StringHash, s, graph.Directed()),
		nodes: make(map[string]model.Node),
	}
}

// FromModel adds every node and connection of m. Connections to nodes outside m are skipped.
func FromModel(m *model.ProcessingModel) (*DOTDrawer, error) {
	d := NewDOTDrawer(m.Name())
	for _, n := range m.Nodes() {
		err := d.AddNode(n)
		if err != nil {
			return nil, err
		}
	}
	for _, conn := range m.Connections() {
		if !m.Contains(conn.Source) {
			continue
		}
		err := d.AddLink(conn.Source, conn.Input.Owner(), conn.Input.Name())
		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

var kindStyle = map[model.NodeKind]struct {
	shape      string
	r, g, b    uint8
	fontColour string
}{
	model.NodeExternalSource: {shape: "invhouse", r: 170, g: 215, b: 170, fontColour: "black"},
	model.NodeProcessor:      {shape: "box", r: 170, g: 195, b: 230, fontColour: "black"},
	model.NodeExternalSink:   {shape: "house", r: 235, g: 200, b: 150, fontColour: "black"},
}

func (d *DOTDrawer) AddNode(n model.Node) error {
	style := kindStyle[n.Kind()]
	fill, err := colors.RGB(style.r, style.g, style.b) //nolint
	if err != nil {
		return errors.Wrap(err, "unable to get colour")
	}

	err = d.graph.AddVertex(n.ID().String(),
		graph.VertexAttribute("label", quote(n.Name())),
		graph.VertexAttribute("shape", style.shape),
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", fill.ToHEX().String()),
		graph.VertexAttribute("fontcolor", style.fontColour),
		graph.VertexAttribute("tooltip", quote(n.Template())),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", n.Name())
	}
	d.nodes[n.ID().String()] = n

	return nil
}

func (d *DOTDrawer) AddLink(from, to model.Node, input string) error {
	source, target := from.ID().String(), to.ID().String()
	err := d.graph.AddEdge(source, target, graph.EdgeAttribute("label", quote(input)))
	if errors.Is(err, graph.ErrEdgeAlreadyExists) {
		edge, err := d.graph.Edge(source, target)
		if err != nil {
			return errors.Wrap(err, "unable to get edge")
		}
		label := edge.Properties.Attributes["label"] + ", " + quote(input)

		return d.graph.UpdateEdge(source, target, graph.EdgeAttribute("label", label))
	}
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", from.Name(), to.Name())
	}

	return nil
}

const maxRGB = 240

// AddMeasure writes the average processing time and the event count next to every node, and the
// average transport time on every link, coloured from blue (fastest) to red (slowest).
func (d *DOTDrawer) AddMeasure(rt Measured) error {
	byAlias := make(map[string]string, len(d.nodes))
	for hash, n := range d.nodes {
		if alias, ok := rt.Alias(n.ID()); ok {
			byAlias[alias] = hash
		}
	}

	msr := rt.Measure()
	var elapsed []time.Duration
	for _, mt := range msr.AllMetrics() {
		for _, avg := range mt.AVGTransportDuration() {
			if avg > 0 {
				elapsed = append(elapsed, avg)
			}
		}
	}
	gradient, err := transportColours(elapsed)
	if err != nil {
		return err
	}

	for alias, mt := range msr.AllMetrics() {
		hash, ok := byAlias[alias]
		if !ok {
			continue
		}
		xlabel := fmt.Sprintf("%d events", mt.Events())
		if avg := mt.AVGDuration(); avg != 0 {
			xlabel += ", avg " + avg.String()
		}
		if dropped := mt.Dropped(); dropped > 0 {
			xlabel += fmt.Sprintf(", %d dropped", dropped)
		}
		if total := mt.GetTotalDuration(); total > 0 {
			xlabel += ", end: " + total.String()
		}
		err := d.store.UpdateVertex(hash, func(p *graph.VertexProperties) {
			p.Attributes["xlabel"] = xlabel
		})
		if err != nil {
			return errors.Wrap(err, "unable to update vertex")
		}

		for upstream, avg := range mt.AVGTransportDuration() {
			from, ok := byAlias[upstream]
			if !ok || avg == 0 {
				continue
			}
			edge, err := d.graph.Edge(from, hash)
			if err != nil {
				return errors.Wrap(err, "unable to get edge")
			}
			err = d.graph.UpdateEdge(from, hash,
				graph.EdgeAttribute("label", edge.Properties.Attributes["label"]+" ("+avg.String()+")"),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", gradient[avg]),
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

func transportColours(elapsed []time.Duration) (map[time.Duration]string, error) {
	out := make(map[time.Duration]string, len(elapsed))
	if len(elapsed) == 0 {
		return out, nil
	}
	sort.Slice(elapsed, func(i, j int) bool { return elapsed[i] < elapsed[j] })
	minValue, maxValue := elapsed[0], elapsed[len(elapsed)-1]
	for _, curr := range elapsed {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}
		red := maxRGB * fraction
		blue := maxRGB - red
		c, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}
		out[curr] = c.ToHEX().String()
	}

	return out, nil
}

func (d *DOTDrawer) Draw(w io.Writer) error {
	desc, err := d.describe()
	if err != nil {
		return errors.Wrap(err, "unable to describe graph")
	}

	return renderDOT(w, desc)
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

//nolint:lll //this is a template
const dotTemplate = `strict digraph "{{.Name}}" {
{{range $k, $v := .Attributes}}	{{$k}}="{{$v}}";
{{end}}{{range .Statements}}	"{{.Source}}"{{if .Target}} -> "{{.Target}}"{{end}} [{{range $k, $v := .Attributes}}{{$k}}="{{$v}}", {{end}}{{if .HTMLLabel}}label={{.HTMLLabel}}, {{end}}weight={{.Weight}}];
{{end}}}
`

type description struct {
	Name       string
	Attributes map[string]string
	Statements []statement
}

type statement struct {
	Source     string
	Target     string
	Attributes map[string]string
	HTMLLabel  string
	Weight     int
}

// describe lists vertices then their outgoing edges, both in key order.
func (d *DOTDrawer) describe() (description, error) {
	desc := description{
		Name:       quote(d.name),
		Attributes: map[string]string{"rankdir": "LR"},
	}

	adjacencyMap, err := d.graph.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}
	vertices := make([]string, 0, len(adjacencyMap))
	for v := range adjacencyMap {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)

	for _, vertex := range vertices {
		_, props, err := d.graph.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}
		attrs := make(map[string]string, len(props.Attributes))
		for k, v := range props.Attributes {
			attrs[k] = v
		}
		stmt := statement{Source: vertex, Weight: props.Weight}
		if xlabel, ok := attrs["xlabel"]; ok {
			stmt.HTMLLabel = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="10">%s</FONT>>`,
				html.EscapeString(d.nodes[vertex].Name()), html.EscapeString(xlabel))
			delete(attrs, "xlabel")
			delete(attrs, "label")
		}
		stmt.Attributes = attrs
		desc.Statements = append(desc.Statements, stmt)

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		for t := range adjacencyMap[vertex] {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, target := range targets {
			edge := adjacencyMap[vertex][target]
			desc.Statements = append(desc.Statements, statement{
				Source:     vertex,
				Target:     target,
				Attributes: edge.Properties.Attributes,
				Weight:     edge.Properties.Weight,
			})
		}
	}

	return desc, nil
}

func renderDOT(w io.Writer, desc description) error {
	tpl, err := template.New("dot").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse template")
	}

	err = tpl.Execute(w, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
