package compiler

import "github.com/aretw0/botsmith/pkg/domain"

// FlattenSheets merges a multi-sheet document into the single-sheet shape.
// Sheet order is kept, so declaration order is sheet by sheet.
// A node id declared on several sheets keeps its first declaration.
func FlattenSheets(raw *rawGraph) {
	if len(raw.Sheets) == 0 {
		return
	}

	seen := make(map[string]bool, len(raw.Nodes))
	nodes := make([]rawNode, 0, len(raw.Nodes))
	for _, n := range raw.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			nodes = append(nodes, n)
		}
	}
	conns := append([]domain.Connection(nil), raw.Connections...)

	for _, sheet := range raw.Sheets {
		for _, n := range sheet.Nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			nodes = append(nodes, n)
		}
		conns = append(conns, sheet.Connections...)
	}

	raw.Nodes = nodes
	raw.Connections = conns
	raw.Sheets = nil
}
