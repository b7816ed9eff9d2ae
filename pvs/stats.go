package pvs

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Statistics of one builder pass.
type PassStats struct {
	Name   string
	Leaves int

	// Number of BoxCanSeeOccludee calls.
	Tested int

	// Nodes removed from leaf PVS. For the QAD pass, nodes that no ray
	// reached.
	Culled int

	// Occluder nodes inserted as a whole because their own PVS could not
	// see the occludee.
	SolidOpt int

	Duration time.Duration
}

// PVS build statistics.
type Stats struct {
	Passes []PassStats

	// Really visible nodes put back after the passes culled them.
	Restored int

	Duration time.Duration
}

// Render the statistics as a table.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Pass", "Leaves", "Tests", "Culled", "Solid opt", "Time"})
	for _, p := range s.Passes {
		table.Append([]string{
			p.Name,
			fmt.Sprint(p.Leaves),
			fmt.Sprint(p.Tested),
			fmt.Sprint(p.Culled),
			fmt.Sprint(p.SolidOpt),
			fmt.Sprintf("%d ms", p.Duration.Nanoseconds()/1e6),
		})
	}
	table.SetFooter([]string{"Restored", fmt.Sprint(s.Restored), "", "", "Total", fmt.Sprintf("%d ms", s.Duration.Nanoseconds()/1e6)})
	table.Render()
	return buf.String()
}
