package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// writeStructured prints v as JSON or YAML on stdout, so exports can be
// piped even though cobra's Print helpers fall back to stderr.
func writeStructured(cmd *cobra.Command, format string, v any) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if format == formatJSON {
		fmt.Fprintln(out)
	}
	return nil
}
