package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
)

// writeCards prints cards as a table, JSON or YAML
func writeCards(w io.Writer, cards []*directory.Card, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cards)

	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(cards); err != nil {
			return err
		}
		return encoder.Close()

	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "UPDATED\tIDENTIFIER\tTITLE\tPUBLISHER\tFILES\tURL")
		for _, card := range cards {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				card.UpdatedAt.Format(time.DateOnly),
				card.Identifier,
				card.Title,
				card.Publisher.Name,
				card.FileCount,
				card.URL)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
