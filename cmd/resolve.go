package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/color"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/icon"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/player"
	"github.com/vidhunt/vidhunt/runner"
	"github.com/vidhunt/vidhunt/stream"
	"github.com/vidhunt/vidhunt/style"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("type", "t", string(media.Movie), "media type: movie or show")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(media.Movie), string(media.Show)}, cobra.ShellCompDirectiveNoFileComp
	}))
	resolveCmd.Flags().String("id", "", "catalog id of the media")
	resolveCmd.Flags().String("title", "", "title of the media, for providers that search by name")
	resolveCmd.Flags().Int("year", 0, "release year")
	resolveCmd.Flags().IntP("season", "s", 0, "season number, shows only")
	resolveCmd.Flags().IntP("episode", "e", 0, "episode number, shows only")

	resolveCmd.Flags().StringSliceP("source", "S", []string{}, "source ids to try first, in order")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("source", completeProviderIDs))
	lo.Must0(viper.BindPFlag(key.SourcesOrder, resolveCmd.Flags().Lookup("source")))

	resolveCmd.Flags().StringSliceP("embed", "E", []string{}, "embed ids to try first, in order")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("embed", completeProviderIDs))
	lo.Must0(viper.BindPFlag(key.EmbedsOrder, resolveCmd.Flags().Lookup("embed")))

	resolveCmd.Flags().Int("timeout", 0, "deadline for the whole resolution, in seconds")
	lo.Must0(viper.BindPFlag(key.RunnerTimeout, resolveCmd.Flags().Lookup("timeout")))

	resolveCmd.Flags().String("proxy", "", "base url of the rewriting proxy")
	lo.Must0(viper.BindPFlag(key.ProxyURL, resolveCmd.Flags().Lookup("proxy")))

	resolveCmd.Flags().String("target", "", "runtime the stream is resolved for: browser, extension, native or any")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("target", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(feature.Targets(), func(t feature.Target, _ int) string { return string(t) }), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.RunnerTarget, resolveCmd.Flags().Lookup("target")))

	resolveCmd.Flags().Bool("no-validate", false, "accept streams without probing them")
	resolveCmd.Flags().Bool("include-external", false, "also try external sources")
	lo.Must0(viper.BindPFlag(key.SourcesIncludeExternal, resolveCmd.Flags().Lookup("include-external")))

	resolveCmd.Flags().BoolP("play", "p", false, "play the stream with mpv")
	resolveCmd.Flags().BoolP("open", "o", false, "open the stream with the system handler")

	resolveCmd.Flags().BoolP("json", "j", false, "print the outcome as json")
	resolveCmd.MarkFlagsMutuallyExclusive("play", "open", "json")
	resolveCmd.Flags().Bool("json-schema", false, "print the json schema of the outcome and exit")
	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a playable stream for a movie or episode",
	Long: `Walk the enabled sources in rank order, and the embeds each one hands off to,
until a stream passes validation.

Exits with a non-zero code when no provider produced a playable stream.`,
	Example: "  vidhunt resolve --type show --id 1399 -s 1 -e 2 --target browser --proxy https://proxy.example",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("json-schema")) {
			printOutcomeSchema(cmd)
			return
		}

		if lo.Must(cmd.Flags().GetBool("no-validate")) {
			viper.Set(key.RunnerValidate, false)
		}

		req := mediaRequest(cmd)
		asJSON := lo.Must(cmd.Flags().GetBool("json"))

		sinks := runner.MultiSink{runner.LogSink{}}
		if !asJSON {
			sinks = append(sinks, runner.SinkFunc(printEvent))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		r := newRunner(loadRegistry(), sinks)
		outcome, err := r.Resolve(ctx, req, runnerOptions())
		handleErr(err)

		found, ok := outcome.Get()
		if asJSON {
			printJSON(cmd, outcome)
		} else if ok {
			printOutcome(cmd, found)
		}

		if !ok {
			handleErr(fmt.Errorf("no playable stream found for %s", req))
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("play")):
			mpv := player.MPV{Path: viper.GetString(key.PlayerMPVPath)}
			handleErr(mpv.Play(ctx, found.Stream, lo.Ternary(req.Title != "", req.Title, req.String())))
		case lo.Must(cmd.Flags().GetBool("open")):
			handleErr(player.Open(found.Stream))
		}
	},
}

func mediaRequest(cmd *cobra.Command) media.Request {
	typ, err := media.ParseType(lo.Must(cmd.Flags().GetString("type")))
	handleErr(err)

	req := media.Request{
		Type:        typ,
		ID:          lo.Must(cmd.Flags().GetString("id")),
		Title:       lo.Must(cmd.Flags().GetString("title")),
		ReleaseYear: lo.Must(cmd.Flags().GetInt("year")),
	}

	if typ == media.Show {
		req.Season = &media.Numbered{Number: lo.Must(cmd.Flags().GetInt("season"))}
		req.Episode = &media.Numbered{Number: lo.Must(cmd.Flags().GetInt("episode"))}
	}

	handleErr(req.Validate())
	return req
}

func printEvent(e runner.Event) {
	switch e := e.(type) {
	case runner.StartEvent:
		fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Progress), style.Faint("trying"), e.ID)
	case runner.UpdateEvent:
		switch e.Status {
		case runner.StatusNotFound:
			fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Search), e.ID, style.Faint("has nothing"))
		case runner.StatusFailure:
			fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Fail), e.ID, style.Fg(color.Red)(e.Reason))
		}
	case runner.DiscoverEmbedsEvent:
		ids := lo.Map(e.Embeds, func(d runner.DiscoveredEmbed, _ int) string { return d.EmbedScraperID })
		fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Link), e.SourceID, style.Faint("-> "+strings.Join(ids, ", ")))
	}
}

func printOutcome(cmd *cobra.Command, outcome runner.Outcome) {
	via := outcome.SourceID
	if embed, ok := outcome.EmbedID.Get(); ok {
		via += " -> " + embed
	}

	field := func(name string, value any) {
		cmd.Printf("  %s %v\n", style.Fg(color.Purple)(name+":"), value)
	}

	s := outcome.Stream
	cmd.Printf("%s %s %s\n", icon.Get(icon.Success), style.Bold(s.ID), style.Faint("via "+via))
	field("type", s.Type)

	switch s.Type {
	case stream.HLS:
		field("playlist", s.Playlist)
	case stream.File:
		qualities := lo.Keys(s.Qualities)
		sort.Slice(qualities, func(i, j int) bool { return qualities[i] < qualities[j] })
		for _, q := range qualities {
			field(string(q), s.Qualities[q].URL)
		}
	}

	if len(s.Flags) > 0 {
		field("flags", s.Flags.String())
	}
	for name, value := range s.Headers {
		field("header", name+": "+value)
	}
	for _, c := range s.Captions {
		field("caption", fmt.Sprintf("%s %s", c.Language, c.URL))
	}
}

func printOutcomeSchema(cmd *cobra.Command) {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		switch t.Name() {
		case "Stream", "Source", "Caption":
			return "stream." + t.Name()
		}
		return t.Name()
	}

	printJSON(cmd, reflector.Reflect(&runner.Outcome{}))
}
