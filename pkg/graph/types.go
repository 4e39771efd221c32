// Package graph defines the serialization data model shared by the layout
// engine, the CLI, and the HTTP API.
//
// The format mirrors what upstream graph producers emit: three flat lists
// (nodes, containers, links) plus a canvas. Before layout the positional
// fields may be absent, non-finite, or degenerate; after layout every
// position and size is finite and populated, links carry path geometry,
// and labeled links carry a label anchor.
//
// The types carry both JSON tags (API requests and file import/export) and
// BSON tags (diagram persistence in MongoDB). Round-trip fidelity is a
// design goal: export → re-import produces an identical diagram.
package graph

import "github.com/archflowhq/archflow/pkg/geometry"

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Link styles.
const (
	StyleSolid  = "solid"
	StyleDashed = "dashed"
	StyleDotted = "dotted"
)

// Default dimensions applied when upstream input is absent or degenerate.
// These are documented contract values: any non-finite coordinate becomes
// zero and any non-positive extent becomes the matching default below.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 70.0

	DefaultContainerWidth  = 240.0
	DefaultContainerHeight = 160.0

	DefaultCanvasWidth  = 1600.0
	DefaultCanvasHeight = 1000.0
)

// =============================================================================
// Node
// =============================================================================

// Node is a single diagram component. X and Y address the node's center.
//
// Layer is an optional pre-assigned tier; when nil the engine derives one
// from container membership or link topology.
type Node struct {
	ID          string  `json:"id" bson:"id"`
	Label       string  `json:"label,omitempty" bson:"label,omitempty"`
	Type        string  `json:"type,omitempty" bson:"type,omitempty"` // semantic role tag (database, queue, service, ...)
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
	Width       float64 `json:"width" bson:"width"`
	Height      float64 `json:"height" bson:"height"`
	ContainerID string  `json:"container_id,omitempty" bson:"container_id,omitempty"`
	Layer       *int    `json:"layer,omitempty" bson:"layer,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Box returns the node's bounding rectangle around its center.
func (n *Node) Box() geometry.Rect {
	return geometry.RectFromCenter(geometry.Point{X: n.X, Y: n.Y}, n.Width, n.Height)
}

// SetBox repositions the node to match the given rectangle.
func (n *Node) SetBox(r geometry.Rect) {
	c := r.Center()
	n.X = c.X
	n.Y = c.Y
	n.Width = r.Width()
	n.Height = r.Height()
}

// =============================================================================
// Container
// =============================================================================

// Container groups nodes (and nested containers) under a shared boundary.
// X and Y address the container's top-left corner; Children holds node IDs
// and may include IDs of nested containers.
type Container struct {
	ID       string   `json:"id" bson:"id"`
	Label    string   `json:"label,omitempty" bson:"label,omitempty"`
	Type     string   `json:"type,omitempty" bson:"type,omitempty"`
	Children []string `json:"children,omitempty" bson:"children,omitempty"`
	X        float64  `json:"x" bson:"x"`
	Y        float64  `json:"y" bson:"y"`
	Width    float64  `json:"width" bson:"width"`
	Height   float64  `json:"height" bson:"height"`
	Zone     string   `json:"zone,omitempty" bson:"zone,omitempty"` // optional tier/zone tag
}

// DisplayLabel returns the label if set, otherwise the ID.
func (c *Container) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// Box returns the container's bounding rectangle.
func (c *Container) Box() geometry.Rect {
	return geometry.RectFromTopLeft(geometry.Point{X: c.X, Y: c.Y}, c.Width, c.Height)
}

// SetBox repositions the container to match the given rectangle.
func (c *Container) SetBox(r geometry.Rect) {
	c.X = r.Left
	c.Y = r.Top
	c.Width = r.Width()
	c.Height = r.Height()
}

// =============================================================================
// Link
// =============================================================================

// Link is a directed relationship between two nodes. Path and LabelAnchor
// are derived by the engine; upstream producers leave them empty.
type Link struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Style  string `json:"style,omitempty" bson:"style,omitempty"`

	// Curvature optionally overrides the router's bend placement,
	// expressed as a fraction in [0, 1] along the main axis.
	Curvature float64 `json:"curvature,omitempty" bson:"curvature,omitempty"`

	// Path is the routed polyline, populated by the engine.
	Path []geometry.Point `json:"path,omitempty" bson:"path,omitempty"`

	// PathData is the same geometry as an SVG path descriptor with
	// rounded corners, populated alongside Path.
	PathData string `json:"path_data,omitempty" bson:"path_data,omitempty"`

	// LabelAnchor is the placed label center, populated by the engine
	// for links with a non-empty Label.
	LabelAnchor *geometry.Point `json:"label_anchor,omitempty" bson:"label_anchor,omitempty"`
}

// =============================================================================
// Diagram
// =============================================================================

// Canvas is the drawable area. Nodes are clamped into it by the boundary
// constraint pass.
type Canvas struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Diagram is the top-level graph document: the engine's input and output.
type Diagram struct {
	Nodes      []Node      `json:"nodes" bson:"nodes"`
	Containers []Container `json:"containers,omitempty" bson:"containers,omitempty"`
	Links      []Link      `json:"links,omitempty" bson:"links,omitempty"`
	Canvas     Canvas      `json:"canvas,omitempty" bson:"canvas,omitempty"`
}

// Node returns a pointer to the node with the given ID, or nil.
func (d *Diagram) Node(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Container returns a pointer to the container with the given ID, or nil.
func (d *Diagram) Container(id string) *Container {
	for i := range d.Containers {
		if d.Containers[i].ID == id {
			return &d.Containers[i]
		}
	}
	return nil
}

// NodeIndex builds an ID → index lookup over the node list.
func (d *Diagram) NodeIndex() map[string]int {
	idx := make(map[string]int, len(d.Nodes))
	for i, n := range d.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Clone returns a deep copy of the diagram. The engine clones its input
// once and mutates the copy, keeping the public API free of side effects.
func (d *Diagram) Clone() *Diagram {
	out := &Diagram{
		Nodes:      make([]Node, len(d.Nodes)),
		Containers: make([]Container, len(d.Containers)),
		Links:      make([]Link, len(d.Links)),
		Canvas:     d.Canvas,
	}
	for i, n := range d.Nodes {
		nn := n
		if n.Layer != nil {
			layer := *n.Layer
			nn.Layer = &layer
		}
		out.Nodes[i] = nn
	}
	for i, c := range d.Containers {
		cc := c
		cc.Children = append([]string(nil), c.Children...)
		out.Containers[i] = cc
	}
	for i, l := range d.Links {
		ll := l
		ll.Path = append([]geometry.Point(nil), l.Path...)
		if l.LabelAnchor != nil {
			anchor := *l.LabelAnchor
			ll.LabelAnchor = &anchor
		}
		out.Links[i] = ll
	}
	return out
}
