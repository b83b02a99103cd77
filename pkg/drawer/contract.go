// Package drawer renders processing models as Graphviz DOT documents.
package drawer

import (
	"io"

	"github.com/google/uuid"

	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/model"
)

// Drawer collects the nodes and links of a model and renders them.
type Drawer interface {
	// AddNode adds a node, styled after its kind.
	AddNode(n model.Node) error
	// AddLink adds a link from a source node to a sink node. Several links between the same pair
	// are drawn as one edge listing every input.
	AddLink(from, to model.Node, input string) error
	// AddMeasure annotates nodes and links with the metrics of a compiled runtime.
	AddMeasure(rt Measured) error
	// Draw writes the DOT document.
	Draw(w io.Writer) error
}

// Measured is a compiled runtime: statement metrics plus the statement name of every node.
// *runtime.ProcessingRuntime implements it.
type Measured interface {
	Measure() measure.Measure
	Alias(id uuid.UUID) (string, bool)
}
