package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Describe the host commands",
	Long: `Print the commands exposed to automated callers, with the JSON schema
of their parameters.`,
	Args: cobra.NoArgs,
	RunE: runCommands,
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func runCommands(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close(cmd.Context())

	descs := s.host.Commands()
	out := cmd.OutOrStdout()

	if jsonOut {
		return writeJSON(out, descs)
	}

	for _, d := range descs {
		fmt.Fprintf(out, "%s\n    %s\n", d.Name, d.Description)
	}
	return nil
}
