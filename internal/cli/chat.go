package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"argos/internal/logging"
	"argos/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat about one asset in the terminal",
		RunE:  runChat,
	}
	cmd.Flags().StringP("asset", "a", "", "Asset id (required)")
	cmd.MarkFlagRequired("asset")
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Terminal output belongs to the TUI; logs only go to a configured file.
	logger := zap.NewNop()
	if cfg.Logging.File != "" {
		if logger, err = logging.New(cfg.Logging); err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	asset, _ := cmd.Flags().GetString("asset")
	asset = strings.ToUpper(strings.TrimSpace(asset))
	digest, err := a.svc.ReportDigest(asset)
	if err != nil {
		return fmt.Errorf("no report for %s: %w", asset, err)
	}

	m := tui.New(a.svc, asset, digest, time.Duration(cfg.LLM.TimeoutSecs)*time.Second)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
