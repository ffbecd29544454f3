package logging

import (
	"fmt"
	"strings"

	"github.com/linuxmatters/mixplay/internal/mixer"
)

// MissingValue is shown for a stage that is not part of a track's chain
const MissingValue = "-"

// Row is one line of a Table. Values are pre-formatted.
type Row struct {
	Label  string
	Values []string // one per header
	Note   string   // optional, shown after the values
}

// Table formats aligned columns: left-aligned labels, right-aligned values
// and a trailing note column that only appears if some row has a note.
type Table struct {
	Headers []string
	Rows    []Row
}

// String renders the table
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	hasNote := false
	for _, row := range t.Rows {
		labelWidth = max(labelWidth, len(row.Label))
		if row.Note != "" {
			hasNote = true
		}
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, v := range row.Values {
			if i < len(widths) {
				widths[i] = max(widths[i], len(v))
			}
		}
	}

	var sb, header strings.Builder

	header.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&header, "%*s  ", widths[i], h)
	}
	if hasNote {
		header.WriteString("Note")
	}
	sb.WriteString(strings.TrimRight(header.String(), " "))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		var line strings.Builder
		fmt.Fprintf(&line, "%-*s  ", labelWidth, row.Label)
		for i := range t.Headers {
			v := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				v = row.Values[i]
			}
			fmt.Fprintf(&line, "%*s  ", widths[i], v)
		}
		line.WriteString(row.Note)
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// AddRow appends a row
func (t *Table) AddRow(label string, values []string, note string) {
	t.Rows = append(t.Rows, Row{Label: label, Values: values, Note: note})
}

// stageLabels names the track stages in table rows
var stageLabels = map[mixer.StageKind]string{
	mixer.StageGain:    "Gain",
	mixer.StageDelay:   "Delay",
	mixer.StageFadeIn:  "Fade in",
	mixer.StageFadeOut: "Fade out",
	mixer.StageCustom:  "Filter",
}

// StageTable lays out a mix: one row per track stage kind in chain order with
// a column per track, then the merge and master bus rows.
func StageTable(spec mixer.MixSpec) *Table {
	t := &Table{Headers: []string{"Track 1", "Track 2"}}

	for _, kind := range mixer.TrackChainOrder {
		t.AddRow(stageLabels[kind], []string{
			describeStage(spec.TrackA, kind),
			describeStage(spec.TrackB, kind),
		}, "")
	}

	loop := "no"
	if spec.TrackBLoop {
		loop = "yes"
	}
	t.AddRow("Loop", []string{"no", loop}, "")

	merge := "amix, both tracks"
	if spec.TrackBLoop {
		merge = "amix, ends with track 1"
	}
	t.AddRow("Mix", nil, merge)

	master := make([]string, 0, len(spec.Master))
	for _, m := range spec.OrderedMaster() {
		master = append(master, string(m))
	}
	note := "none"
	if len(master) > 0 {
		note = strings.Join(master, ", ")
	}
	t.AddRow("Master", nil, note)

	return t
}

func describeStage(chain mixer.TrackChain, kind mixer.StageKind) string {
	if s, ok := chain.Stage(kind); ok {
		return s.Describe()
	}
	return MissingValue
}
