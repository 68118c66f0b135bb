package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harun/graviton/pkg/extension"
)

var (
	invokeID     string
	invokePrompt string
)

var extensionCmd = &cobra.Command{
	Use:   "extension",
	Short: "List and invoke extensions",
}

var extensionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available extensions",
	Long:  `List the registered extensions as id and name, in registration order.`,
	Args:  cobra.NoArgs,
	RunE:  runExtensionList,
}

var extensionInvokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Send a prompt to an extension",
	Long: `Send a prompt to the extension with the given id and print its response.
An unknown id fails with the list of available extensions.`,
	Args: cobra.NoArgs,
	RunE: runExtensionInvoke,
}

func init() {
	extensionInvokeCmd.Flags().StringVar(&invokeID, "id", extension.EchoID, "extension id")
	extensionInvokeCmd.Flags().StringVarP(&invokePrompt, "prompt", "p", "", "prompt text")
	_ = extensionInvokeCmd.MarkFlagRequired("prompt")

	extensionCmd.AddCommand(extensionListCmd)
	extensionCmd.AddCommand(extensionInvokeCmd)
	rootCmd.AddCommand(extensionCmd)
}

func runExtensionList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close(cmd.Context())

	list := s.host.ExtensionList(cmd.Context())
	out := cmd.OutOrStdout()

	if jsonOut {
		return writeJSON(out, list)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No extensions registered")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, info := range list {
		fmt.Fprintf(tw, "%s\t%s\n", info.ID, info.Name)
	}
	return tw.Flush()
}

func runExtensionInvoke(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close(cmd.Context())

	resp, err := s.host.ExtensionInvoke(cmd.Context(), invokePrompt, invokeID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := writeJSON(out, resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, resp.Content)
	}

	if !resp.Success {
		return fmt.Errorf("extension %s reported failure", resp.ExtensionName)
	}
	return nil
}
