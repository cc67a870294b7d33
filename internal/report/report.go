// Package report renders a SessionResult as JSON (§6.4) or as a
// colored text summary (§7's "user-visible behavior"): a per-endpoint
// table plus incompatibilities[] and toleratedChanges[] lists.
//
// Grounded on internal/obs/mask.go for what belongs on a report line
// (masked headers stay masked in text output) and on
// fuchsia74-one-api's go.mod for github.com/olekukonko/tablewriter,
// the pack's one table-rendering dependency. github.com/fatih/color is
// an out-of-pack but ecosystem-idiomatic pairing for tablewriter (no
// retrieved repo's go.mod carries a terminal-color library, so this one
// is named rather than pack-grounded).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"replayverify/internal/obs"
	"replayverify/pkg/model"
)

// Incompatibility is one entry of the report's incompatibilities[] list.
type Incompatibility struct {
	Endpoint string `json:"endpoint"`
	Section  string `json:"section"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}

// ToleratedChange is one entry of the report's toleratedChanges[] list.
type ToleratedChange struct {
	Endpoint string `json:"endpoint"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}

// Document is the full JSON report shape (§6.4): SessionResult plus the
// incompatibilities/toleratedChanges lists §7 calls for.
type Document struct {
	*model.SessionResult
	Incompatibilities []Incompatibility `json:"incompatibilities"`
	ToleratedChanges  []ToleratedChange `json:"toleratedChanges"`
}

// Build derives a Document from a SessionResult, walking every
// interaction's diffs into the flat incompatibilities/tolerated lists.
func Build(result *model.SessionResult) *Document {
	doc := &Document{SessionResult: result}

	for _, ir := range result.InteractionResults {
		endpoint := ir.Method + " " + ir.Path
		if ir.Comparison == nil {
			continue
		}
		for _, d := range ir.Comparison.Diffs {
			if d.Tolerated {
				doc.ToleratedChanges = append(doc.ToleratedChanges, ToleratedChange{
					Endpoint: endpoint,
					Path:     d.Path,
					Reason:   d.ToleranceReason,
				})
				continue
			}
			if d.Breaking || d.Kind == model.DiffRemoved || d.Kind == model.DiffTypeChanged {
				doc.Incompatibilities = append(doc.Incompatibilities, Incompatibility{
					Endpoint: endpoint,
					Section:  string(d.Section),
					Path:     d.Path,
					Reason:   d.Reason,
				})
			}
		}
	}

	return doc
}

// WriteJSON marshals the Document as indented JSON (§6.4).
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteText renders the Document as a colored per-endpoint table
// followed by the incompatibilities/toleratedChanges lists (§7).
func WriteText(w io.Writer, doc *Document) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Endpoint", "Status", "Total", "Tolerated", "Effective", "Verdict"})

	for _, ir := range doc.InteractionResults {
		endpoint := fmt.Sprintf("%s %s", ir.Method, ir.Path)
		if ir.Comparison == nil {
			verdict := color.RedString("ERROR")
			if ir.Error != "" {
				verdict = color.RedString("ERROR: %s", obs.MaskValue(ir.Error))
			}
			table.Append([]string{endpoint, "-", "-", "-", "-", verdict})
			continue
		}

		c := ir.Comparison
		total := c.HeaderDiffs.Total + c.BodyDiffs.Total
		tolerated := c.HeaderDiffs.Tolerated + c.BodyDiffs.Tolerated
		effective := total - tolerated

		status := color.GreenString("match")
		if !c.StatusMatch {
			status = color.RedString("mismatch")
		}

		verdict := color.GreenString("compatible")
		if !c.IsCompatible {
			if c.IsEffectivelyCompatible {
				verdict = color.YellowString("effectively compatible")
			} else {
				verdict = color.RedString("incompatible")
			}
		}

		table.Append([]string{
			endpoint,
			status,
			fmt.Sprintf("%d", total),
			fmt.Sprintf("%d", tolerated),
			fmt.Sprintf("%d", effective),
			verdict,
		})
	}
	table.Render()

	if len(doc.Incompatibilities) > 0 {
		fmt.Fprintln(w, color.RedString("\nIncompatibilities:"))
		for _, i := range doc.Incompatibilities {
			fmt.Fprintf(w, "  %s %s %s: %s\n", i.Endpoint, i.Section, i.Path, i.Reason)
		}
	}

	if len(doc.ToleratedChanges) > 0 {
		fmt.Fprintln(w, color.YellowString("\nTolerated changes:"))
		for _, t := range doc.ToleratedChanges {
			fmt.Fprintf(w, "  %s %s: %s\n", t.Endpoint, t.Path, t.Reason)
		}
	}

	fmt.Fprintf(w, "\n%s\n", summaryLine(doc.Summary))
	return nil
}

func summaryLine(s model.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total: %d  Compatible: %d  Incompatible: %d  Errors: %d  Score: %.2f%%  Effective: %.2f%%",
		s.Total, s.Compatible, s.Incompatible, s.Errors, s.CompatibilityScore, s.EffectiveCompatibilityScore)
	return b.String()
}
