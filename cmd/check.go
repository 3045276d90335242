package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/icon"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/style"
	"github.com/vidhunt/vidhunt/where"
)

// loadRegistry builds the provider registry from builtins and the scripts in the sources directory.
// A registry configuration error is fatal: it is printed and the process exits before any network activity.
func loadRegistry() *provider.Registry {
	registry, err := provider.Load(provider.LoadOptions{
		Dir:      where.Sources(),
		Disabled: viper.GetStringSlice(key.SourcesDisabled),
	})

	var configErr *provider.ConfigError
	if errors.As(err, &configErr) {
		printConfigError(configErr)
		os.Exit(1)
	}
	handleErr(err)

	return registry
}

func completeProviderIDs(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	registry, err := provider.Load(provider.LoadOptions{Dir: where.Sources()})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return registry.IDs(), cobra.ShellCompDirectiveNoFileComp
}

func printConfigError(err *provider.ConfigError) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Invalid Provider Registry", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(strings.Join(lo.Map(err.Problems, func(p string, _ int) string {
		return "- " + p
	}), "\n"))

	suggestion := fmt.Sprintf("\n\nRename or remove the conflicting scripts in:\n  %s",
		style.New().Foreground(style.AccentColor).Bold(true).Render(where.Sources()))

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
