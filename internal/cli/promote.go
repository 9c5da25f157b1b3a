package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// PromotionTable is the result dtype of every pair of array dtypes, keyed
// by the dtype names.
type PromotionTable struct {
	Types []string                     `json:"types"`
	Table map[string]map[string]string `json:"table"`
}

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Print the dtype promotion table",
		Long: `Print the result dtype of a binary operation between two arrays, for every
pair of supported dtypes. Rows are the left operand, columns the right one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := BuildPromotionTable()
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}
			return WritePromotionTable(cmd.OutOrStdout(), table)
		},
	}
}

// BuildPromotionTable computes the promotion table.
func BuildPromotionTable() (*PromotionTable, error) {
	table := &PromotionTable{Table: make(map[string]map[string]string)}
	for _, a := range tensor.DataTypes() {
		table.Types = append(table.Types, a.String())
		row := make(map[string]string)
		for _, b := range tensor.DataTypes() {
			c, err := tensor.Promote(a, b)
			if err != nil {
				return nil, err
			}
			row[b.String()] = c.String()
		}
		table.Table[a.String()] = row
	}
	return table, nil
}

// WritePromotionTable writes the table as aligned text.
func WritePromotionTable(w io.Writer, table *PromotionTable) error {
	const cell = 9
	line := func(first string, cells []string) string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%-*s", cell, first)
		for _, c := range cells {
			fmt.Fprintf(&sb, "%-*s", cell, c)
		}
		return strings.TrimRight(sb.String(), " ")
	}

	if _, err := fmt.Fprintln(w, line("", table.Types)); err != nil {
		return err
	}
	for _, a := range table.Types {
		cells := make([]string, len(table.Types))
		for i, b := range table.Types {
			cells[i] = table.Table[a][b]
		}
		if _, err := fmt.Fprintln(w, line(a, cells)); err != nil {
			return err
		}
	}
	return nil
}
