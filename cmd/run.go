package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/runner"
	"github.com/vidhunt/vidhunt/source"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("type", "t", string(media.Movie), "media type: movie or show")
	runCmd.Flags().String("id", "", "catalog id to scrape, sources only")
	runCmd.Flags().String("title", "", "title of the media")
	runCmd.Flags().Int("year", 0, "release year")
	runCmd.Flags().IntP("season", "s", 0, "season number, shows only")
	runCmd.Flags().IntP("episode", "e", 0, "episode number, shows only")
	runCmd.Flags().StringP("url", "u", "", "url to scrape, embeds only")
	runCmd.SetOut(os.Stdout)
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Lua provider script",
	Long: `Load a Lua provider script and print what it declares.
With --id (sources) or --url (embeds) it is also run once and its bundle printed,
after feature filtering and proxy planning. Useful while writing a provider.`,
	Args:    cobra.ExactArgs(1),
	Example: "  vidhunt run ./catalog.lua --type show --id 1399 -s 1 -e 2",
	Run: func(cmd *cobra.Command, args []string) {
		src, embed, err := provider.LoadScript(args[0])
		handleErr(err)

		var (
			sources []*provider.Source
			embeds  []*provider.Embed
			meta    provider.Meta
		)
		if embed != nil {
			embeds, meta = append(embeds, embed), embed.Meta
		} else {
			sources, meta = append(sources, src), src.Meta
		}

		registry, err := provider.Build(sources, embeds)
		handleErr(err)

		r := newRunner(registry, runner.LogSink{})
		ctx := context.Background()

		var bundle *source.Bundle
		switch {
		case embed != nil && cmd.Flags().Changed("url"):
			bundle, err = r.RunEmbed(ctx, embed.ID, lo.Must(cmd.Flags().GetString("url")))
		case src != nil && cmd.Flags().Changed("id"):
			bundle, err = r.RunSource(ctx, src.ID, mediaRequest(cmd))
		default:
			printJSON(cmd, meta)
			return
		}
		handleErr(err)

		printJSON(cmd, bundle)
	},
}

func printJSON(cmd *cobra.Command, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	handleErr(err)
	cmd.Println(string(data))
}
