package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mcoot/raceboard/internal/model"
)

func errInvalidOutput(format string) error {
	return fmt.Errorf("unknown output format %q: must be text or json", format)
}

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SubmitResult:
		o.printSubmitResult(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SubmitResult response type (matches API)
type SubmitResult struct {
	OK       bool   `json:"ok"`
	Upserted string `json:"upserted,omitempty"`
}

// ScoreRow is one leaderboard entry
type ScoreRow struct {
	ID         string      `json:"id,omitempty"`
	PlayerID   string      `json:"playerID,omitempty"`
	PlayerName string      `json:"playerName"`
	CarID      model.CarID `json:"carID"`
	Distance   float64     `json:"distance"`
	LastUpdate *time.Time  `json:"lastUpdate,omitempty"`
}

// Leaderboard is a ranked list of rows
type Leaderboard []ScoreRow

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSubmitResult(r SubmitResult) {
	if r.Upserted != "" {
		fmt.Fprintf(o.w, "Score recorded (new record %s)\n", r.Upserted)
		return
	}
	fmt.Fprintln(o.w, "Score recorded")
}

func (o *Output) printLeaderboard(rows Leaderboard) {
	if len(rows) == 0 {
		fmt.Fprintln(o.w, "No scores yet")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tPLAYER ID\tCAR\tDISTANCE")
	for i, r := range rows {
		playerID := r.PlayerID
		if playerID == "" {
			playerID = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i+1, r.PlayerName, playerID, r.CarID.String(), strconv.FormatFloat(r.Distance, 'f', -1, 64))
	}
	_ = tw.Flush()
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
