// Package classify inspects node and link statistics to guess which
// architecture pattern a diagram describes.
//
// Classification is a fast heuristic over counts, degree statistics, and
// label keywords - not a learned model. A wrong guess only degrades layout
// aesthetics: every downstream stage produces valid geometry regardless of
// the pattern chosen, so classification has no failure mode. Ambiguous
// graphs resolve to PatternLayered.
package classify

import (
	"strings"

	"github.com/archflowhq/archflow/pkg/graph"
)

// Pattern identifies the architecture family a diagram most resembles.
type Pattern int

const (
	// PatternLayered is the default for ambiguous graphs.
	PatternLayered Pattern = iota
	// PatternPipeline is a linear chain of stages.
	PatternPipeline
	// PatternTiered is a classic presentation/business/data stack.
	PatternTiered
	// PatternHubSpoke has one dominant node most links attach to.
	PatternHubSpoke
	// PatternEventDriven is connected through queues, topics, or buses.
	PatternEventDriven
	// PatternMicroservices is a dense mesh of small services.
	PatternMicroservices
	// PatternClientServer is a small front-to-back split.
	PatternClientServer
)

// String returns the pattern's wire name.
func (p Pattern) String() string {
	switch p {
	case PatternPipeline:
		return "pipeline"
	case PatternTiered:
		return "tiered"
	case PatternHubSpoke:
		return "hub-spoke"
	case PatternEventDriven:
		return "event-driven"
	case PatternMicroservices:
		return "microservices"
	case PatternClientServer:
		return "client-server"
	default:
		return "layered"
	}
}

// Shape describes the coarse topology of the link structure.
type Shape int

const (
	// ShapeLinear means most nodes have at most one inbound and one
	// outbound link.
	ShapeLinear Shape = iota
	// ShapeHub means a single node dominates the degree distribution.
	ShapeHub
	// ShapeClustered means links concentrate inside groups.
	ShapeClustered
)

// String returns the shape's wire name.
func (s Shape) String() string {
	switch s {
	case ShapeHub:
		return "hub"
	case ShapeClustered:
		return "clustered"
	default:
		return "linear"
	}
}

// Result is the classifier's verdict plus the statistics it was based on,
// which callers may log for diagnosis.
type Result struct {
	Pattern   Pattern
	Shape     Shape
	NodeCount int
	LinkCount int
	LinkRatio float64 // links per node
	MaxDegree int
	HubID     string // node with the maximum degree, when ShapeHub
}

// Keyword sets tested against lowercased node labels and types.
// Membership in a set is substring-based: "user-queue" matches "queue".
var (
	tierKeywords = []string{
		"presentation", "frontend", "ui", "web",
		"business", "service", "backend", "api",
		"data", "database", "storage", "cache",
	}
	eventKeywords        = []string{"queue", "topic", "bus", "event", "stream", "broker", "kafka", "pubsub"}
	clientServerKeywords = []string{"client", "server", "browser", "mobile"}
	serviceKeywords      = []string{"service", "svc", "microservice"}
)

// Classify inspects a diagram and returns the best-matching pattern.
// The input is read-only; Classify never mutates the diagram.
func Classify(d *graph.Diagram) Result {
	res := Result{
		NodeCount: len(d.Nodes),
		LinkCount: len(d.Links),
	}
	if res.NodeCount == 0 {
		return res
	}
	res.LinkRatio = float64(res.LinkCount) / float64(res.NodeCount)

	degrees := degreeMap(d)
	var sum int
	for id, deg := range degrees {
		sum += deg
		if deg > res.MaxDegree {
			res.MaxDegree = deg
			res.HubID = id
		}
	}
	mean := float64(sum) / float64(res.NodeCount)

	// Hub rule: one node clearly dominates the degree distribution.
	if res.MaxDegree >= 3 && float64(res.MaxDegree) > 1.4*mean {
		res.Pattern = PatternHubSpoke
		res.Shape = ShapeHub
		return res
	}

	keywordHits := countKeywordHits(d)

	switch {
	case keywordHits.event >= 2:
		res.Pattern = PatternEventDriven
	case isChain(d, degrees):
		res.Pattern = PatternPipeline
		res.Shape = ShapeLinear
	case keywordHits.tier >= 3:
		res.Pattern = PatternTiered
	case keywordHits.clientServer >= 2 && res.NodeCount <= 6:
		res.Pattern = PatternClientServer
	case keywordHits.service >= 3 && res.LinkRatio > 1.2:
		res.Pattern = PatternMicroservices
		res.Shape = ShapeClustered
	default:
		res.Pattern = PatternLayered
	}

	if len(d.Containers) >= 2 && res.Shape == ShapeLinear && res.Pattern != PatternPipeline {
		res.Shape = ShapeClustered
	}
	return res
}

// degreeMap counts total degree (in + out) per node over sanitized links.
func degreeMap(d *graph.Diagram) map[string]int {
	deg := make(map[string]int, len(d.Nodes))
	for _, n := range d.Nodes {
		deg[n.ID] = 0
	}
	for _, l := range d.Links {
		deg[l.Source]++
		deg[l.Target]++
	}
	return deg
}

type hits struct {
	tier, event, clientServer, service int
}

func countKeywordHits(d *graph.Diagram) hits {
	var h hits
	for _, n := range d.Nodes {
		text := strings.ToLower(n.Label + " " + n.Type + " " + n.ID)
		if matchesAny(text, tierKeywords) {
			h.tier++
		}
		if matchesAny(text, eventKeywords) {
			h.event++
		}
		if matchesAny(text, clientServerKeywords) {
			h.clientServer++
		}
		if matchesAny(text, serviceKeywords) {
			h.service++
		}
	}
	return h
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isChain reports whether the graph is a simple path: every node touches
// at most two links and the link count is exactly nodes-1.
func isChain(d *graph.Diagram, degrees map[string]int) bool {
	if len(d.Nodes) < 2 || len(d.Links) != len(d.Nodes)-1 {
		return false
	}
	for _, deg := range degrees {
		if deg > 2 {
			return false
		}
	}
	return true
}
