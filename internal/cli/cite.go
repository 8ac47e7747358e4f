package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"argos/internal/citation"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cite [file]",
		Short: "List the insight and article ids a report cites",
		Long:  "Reads a markdown report (or stdin when no file or \"-\" is given) and prints the cited ids as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCite,
	}
	cmd.Flags().Int("max", 0, "Keep at most this many ids per kind (0 = all)")
	RootCmd.AddCommand(cmd)
}

func runCite(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	set := citation.Extract(string(data))
	if n, _ := cmd.Flags().GetInt("max"); n > 0 {
		set = set.Limit(n)
	}
	b, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
