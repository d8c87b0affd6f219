package commands

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/xscrape/internal/output"
)

// addOutputFlags registers -o and --format on cmd.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "", "output format: json, jsonl, yaml, text (default: from file extension, else json)")
}

// openOutput returns a writer for the command's output flags.
func openOutput(cmd *cobra.Command) (output.Writer, error) {
	path, _ := cmd.Flags().GetString("output")
	name, _ := cmd.Flags().GetString("format")

	format := output.FormatJSON
	if name != "" {
		f, err := output.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		format = f
	} else if path != "" {
		format = output.FormatFromPath(path, output.FormatJSON)
	}

	if path == "" {
		return output.NewWriter(os.Stdout, format)
	}
	return output.Create(afero.NewOsFs(), path, format)
}
