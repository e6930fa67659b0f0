package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// emit prints v as indented JSON under --json, otherwise the plain text.
func (a *app) emit(cmd *cobra.Command, v any, text string) error {
	if a.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
