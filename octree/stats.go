package octree

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Total, average and range of a per item count.
type Summary struct {
	Total int
	Min   int
	Max   int
	Items int
}

func (s *Summary) add(v int) {
	if s.Items == 0 || v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
	s.Total += v
	s.Items++
}

// Get the average value.
func (s Summary) Avg() float64 {
	if s.Items == 0 {
		return 0
	}
	return float64(s.Total) / float64(s.Items)
}

// Octree statistics.
type Stats struct {
	Nodes       int
	Leaves      int
	EmptyLeaves int
	MaxDepth    int
	Polygons    int

	// Mini BSP trees and their per tree node count, depth and polygons.
	BSPTrees    int
	BSPNodes    Summary
	BSPDepth    Summary
	BSPPolygons Summary

	// Per leaf PVS size in nodes and polygons.
	PVSNodes    Summary
	PVSPolygons Summary

	// The leaf seeing the fewest nodes.
	BestPVSLeaf int

	Stubs int
}

// Collect tree statistics.
func (t *Octree) Stats() Stats {
	s := Stats{Nodes: len(t.nodes), BestPVSLeaf: -1, Stubs: t.stubs.InUse()}
	if t.root != nil {
		s.Polygons = len(t.root.Unsplit)
	}
	for _, n := range t.nodes {
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
		if !n.leaf {
			continue
		}
		s.Leaves++
		if n.MiniBSP == nil || n.MiniBSP.Root() == nil {
			s.EmptyLeaves++
		} else {
			s.BSPTrees++
			bs := n.MiniBSP.Stats()
			s.BSPNodes.add(bs.Nodes)
			s.BSPDepth.add(bs.Depth)
			s.BSPPolygons.add(bs.Polygons)
		}

		if n.PVS.Len() == 0 {
			continue
		}
		visiblePolys := 0
		for _, entry := range n.PVS.Visible() {
			visiblePolys += len(entry.Polygons)
		}
		if s.BestPVSLeaf < 0 || n.PVS.Len() < s.PVSNodes.Min {
			s.BestPVSLeaf = n.ID
		}
		s.PVSNodes.add(n.PVS.Len())
		s.PVSPolygons.add(visiblePolys)
	}
	return s
}

// Render the statistics as a table.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Item", "Total", "Avg", "Min", "Max"})
	table.Append([]string{"Nodes", fmt.Sprint(s.Nodes), "", "", ""})
	table.Append([]string{"Leaves", fmt.Sprint(s.Leaves), "", "", ""})
	table.Append([]string{"Empty leaves", fmt.Sprint(s.EmptyLeaves), "", "", ""})
	table.Append([]string{"Max depth", fmt.Sprint(s.MaxDepth), "", "", ""})
	table.Append([]string{"Polygons", fmt.Sprint(s.Polygons), "", "", ""})
	table.Append([]string{"Stubs", fmt.Sprint(s.Stubs), "", "", ""})
	table.Append([]string{" ", " ", " ", " ", " "})
	table.Append([]string{"Mini BSP trees", fmt.Sprint(s.BSPTrees), "", "", ""})
	table.Append(summaryRow("BSP nodes", s.BSPNodes, -1))
	table.Append(summaryRow("BSP depth", s.BSPDepth, -1))
	table.Append(summaryRow("BSP polygons", s.BSPPolygons, -1))
	if s.PVSNodes.Items > 0 {
		table.Append([]string{" ", " ", " ", " ", " "})
		table.Append(summaryRow("PVS nodes", s.PVSNodes, s.Nodes))
		table.Append(summaryRow("PVS polygons", s.PVSPolygons, s.Polygons))
		table.SetFooter([]string{"Best PVS leaf", fmt.Sprint(s.BestPVSLeaf), "", "", ""})
	}
	table.Render()
	return buf.String()
}

// Build a table row for a summary. When of is positive the average,
// minimum and maximum are also shown as a percentage of it.
func summaryRow(name string, s Summary, of int) []string {
	row := []string{name, fmt.Sprint(s.Total), fmt.Sprintf("%.1f", s.Avg()), fmt.Sprint(s.Min), fmt.Sprint(s.Max)}
	if of > 0 {
		pct := func(v float64) string { return fmt.Sprintf(" (%.1f %%)", 100*v/float64(of)) }
		row[2] += pct(s.Avg())
		row[3] += pct(float64(s.Min))
		row[4] += pct(float64(s.Max))
	}
	return row
}
