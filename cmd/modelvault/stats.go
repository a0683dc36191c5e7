package main

import (
	"context"
	"fmt"

	"modelvault/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Style definitions for the stats panel
var (
	primaryColor = lipgloss.Color("#8BE9FD")
	accentColor  = lipgloss.Color("#50FA7B")
	warningColor = lipgloss.Color("#FFB86C")
	dangerColor  = lipgloss.Color("#FF5555")
	mutedColor   = lipgloss.Color("#6272A4")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(accentColor)
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry-wide statistics",
		Long:  `Recomputes artifact, chunk and audit totals from a full manifest scan`,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(verbose)
	defer logger.Sync()

	v, err := openVault(logger)
	if err != nil {
		return err
	}
	defer v.close()

	stats, err := v.registry.GlobalStats(context.Background())
	if err != nil {
		return err
	}

	row := func(label, value string, style lipgloss.Style) string {
		return labelStyle.Render(label) + style.Render(value)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Registry statistics"),
		row("Total artifacts", fmt.Sprintf("%d", stats.TotalArtifacts), valueStyle),
		row("Pending", fmt.Sprintf("%d", stats.PendingArtifacts), valueStyle.Foreground(warningColor)),
		row("Active", fmt.Sprintf("%d", stats.ActiveArtifacts), valueStyle),
		row("Deprecated", fmt.Sprintf("%d", stats.DeprecatedArtifacts), valueStyle.Foreground(dangerColor)),
		row("Total chunks", fmt.Sprintf("%d", stats.TotalChunks), valueStyle),
		row("Total bytes", utils.FormatDataSize(stats.TotalBytes), valueStyle),
		row("Audit events", fmt.Sprintf("%d", stats.AuditEvents), valueStyle),
	)

	fmt.Println(panelStyle.Render(body))
	return nil
}
