// Package cli wires the frijol commands.
package cli

import "github.com/spf13/cobra"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "frijol",
		Short:   "Generate a type-safe Go client from an OpenAPI specification",
		Version: "1.0.0",

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(GenerateCommand(), PreviewCommand())

	return root
}
