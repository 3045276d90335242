// Package cmd implements the command-line interface for vidhunt.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/color"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/icon"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/style"
	"github.com/vidhunt/vidhunt/util"
	"github.com/vidhunt/vidhunt/version"
	"github.com/vidhunt/vidhunt/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringSlice("disable", []string{}, "Provider ids to disable for this run")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("disable", completeProviderIDs))
	lo.Must0(viper.BindPFlag(key.SourcesDisabled, rootCmd.PersistentFlags().Lookup("disable")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Vidhunt,
	Short: "Resolve a playable stream for a movie or episode",
	Long: style.New().Bold(true).Foreground(color.HiRed).Render(constant.Vidhunt) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Walks ranked scraping providers until one hands back a playable stream"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
