// Package report renders changelists for people and programs.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gallerydiff/database"
	"gallerydiff/types"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatText  = "text"
	FormatTable = "table"
)

// Formats lists the accepted output formats
var Formats = []string{FormatJSON, FormatText, FormatTable}

var ErrUnknownFormat = errors.New("unknown output format")

// ValidateFormat checks that format is one of Formats
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("%w %q (expected one of %v)", ErrUnknownFormat, format, Formats)
	}
	return nil
}

// Write renders the changelist in the given format
func Write(w io.Writer, changelist types.Changelist, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, changelist)
	case FormatText:
		return writeText(w, changelist)
	case FormatTable:
		return writeTable(w, changelist)
	default:
		return ValidateFormat(format)
	}
}

// ReadJSON decodes a changelist written with FormatJSON
func ReadJSON(r io.Reader) (types.Changelist, error) {
	var changelist types.Changelist
	if err := json.NewDecoder(r).Decode(&changelist); err != nil {
		return nil, fmt.Errorf("decode changelist: %w", err)
	}
	for i, entry := range changelist {
		if !slices.Contains(types.Resolutions, entry.Resolution) {
			return nil, fmt.Errorf("entry %d: unknown resolution %q", i, entry.Resolution)
		}
	}
	return changelist, nil
}

func writeJSON(w io.Writer, changelist types.Changelist) error {
	if changelist == nil {
		changelist = types.Changelist{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(changelist)
}

func formatDistance(entry types.ChangelistEntry) string {
	if entry.Resolution != types.ResolutionLightChanges {
		return ""
	}
	return strconv.FormatFloat(entry.Distance, 'g', 6, 64)
}

func writeText(w io.Writer, changelist types.Changelist) error {
	for _, entry := range changelist {
		var err error
		switch entry.Resolution {
		case types.ResolutionRemoved:
			_, err = fmt.Fprintf(w, "removed        %s\n", entry.Reference)
		case types.ResolutionAdded:
			_, err = fmt.Fprintf(w, "added          %s\n", entry.Target)
		case types.ResolutionUnchanged:
			_, err = fmt.Fprintf(w, "unchanged      %s -> %s (%s)\n", entry.Reference, entry.Target, entry.SolvedBy)
		default:
			_, err = fmt.Fprintf(w, "%-14s %s -> %s (%s, distance %s)\n",
				entry.Resolution, entry.Reference, entry.Target, entry.SolvedBy, formatDistance(entry))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, changelist types.Changelist) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Resolution", "Reference", "Target", "Distance", "Solved by"})
	for _, entry := range changelist {
		tw.AppendRow(table.Row{entry.Resolution, entry.Reference, entry.Target, formatDistance(entry), entry.SolvedBy})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{summary(changelist)})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func summary(changelist types.Changelist) string {
	parts := make([]string, 0, len(types.Resolutions))
	for _, resolution := range types.Resolutions {
		parts = append(parts, fmt.Sprintf("%d %s", changelist.Count(resolution), resolution))
	}
	return strings.Join(parts, ", ")
}

// WriteRuns renders stored runs with their resolution counts as a table
func WriteRuns(w io.Writer, runs []database.RunStats) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Run", "Created", "Reference", "Target"}
	for _, resolution := range types.Resolutions {
		header = append(header, resolution)
	}
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(types.Resolutions))
	for i := range types.Resolutions {
		configs = append(configs, table.ColumnConfig{Number: 5 + i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	for _, run := range runs {
		row := table.Row{run.Run.ID, run.Run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Run.ReferenceFolder, run.Run.TargetFolder}
		for _, resolution := range types.Resolutions {
			row = append(row, run.Counts[resolution])
		}
		tw.AppendRow(row)
	}

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
