// Package ego extracts ego subgraphs: the induced neighborhood of a center
// node up to a fixed number of hops.
//
// The neighborhood is found by breadth-first search from the center and then
// closed into an induced subgraph, so edges between two leaves survive even
// though the traversal tree never walks them:
//
//	v, err := ego.Extract(g, "b", 1)
//	// v holds b, its neighbors and every edge among them
//
// [Centers] yields the sweep order used when every node in turn becomes a
// center, and [OutputName] turns a center's label into a path-safe name.
package ego

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/Traubert/nlp-tools/pkg/errors"
	"github.com/Traubert/nlp-tools/pkg/graph"
)

// DefaultDepth is the hop limit used by ego sweeps.
const DefaultDepth = 1

// FilePrefix prefixes every ego output name.
const FilePrefix = "egograph_"

// Extract returns the induced subgraph of every node within depth hops of
// center. A depth of zero or less yields the singleton {center}.
// The view's node order is BFS discovery order, starting with the center.
// Returns graph.ErrUnknownNode if center is absent.
func Extract(g *graph.Graph, center string, depth int) (*graph.View, error) {
	if !g.Has(center) {
		return nil, fmt.Errorf("ego center %q: %w", center, graph.ErrUnknownNode)
	}

	reached := map[string]struct{}{center: {}}
	order := []string{center}
	frontier := []string{center}

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			nbrs, err := g.Neighbors(id)
			if err != nil {
				return nil, err
			}
			for _, nb := range nbrs {
				if _, ok := reached[nb]; ok {
					continue
				}
				reached[nb] = struct{}{}
				order = append(order, nb)
				next = append(next, nb)
			}
		}
		frontier = next
	}

	return g.Induced(order)
}

// Centers returns the nodes of g in the order an ego sweep visits them,
// which is node insertion order.
func Centers(g *graph.Graph) []*graph.Node {
	return g.Nodes()
}

// maxLabelBytes keeps FilePrefix plus a sanitized label within the export
// name limit.
const maxLabelBytes = apperrors.MaxNameLength - len(FilePrefix)

var nameReplacer = strings.NewReplacer(
	"/", "|",
	`\`, "|",
	" ", "_",
	`"`, "",
	"'", "",
)

// OutputName returns the output identifier for an ego graph centered on n:
// FilePrefix followed by the sanitized display label. The result always
// passes errors.ValidateName.
func OutputName(n *graph.Node) string {
	return FilePrefix + Sanitize(n.DisplayLabel())
}

// Sanitize makes a label safe as a file name fragment. Slashes of either
// kind become "|", spaces and control characters become "_", and quote
// characters are dropped. Labels over the name limit are cut at a rune
// boundary and end in "~" plus a hash of the full label.
func Sanitize(label string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, nameReplacer.Replace(label))
	if len(s) <= maxLabelBytes {
		return s
	}

	h := fnv.New32a()
	h.Write([]byte(label))
	suffix := fmt.Sprintf("~%08x", h.Sum32())

	cut := maxLabelBytes - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
