package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/color"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/icon"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/network"
	"github.com/vidhunt/vidhunt/provider"
	"github.com/vidhunt/vidhunt/provider/custom"
	"github.com/vidhunt/vidhunt/style"
	"github.com/vidhunt/vidhunt/util"
	"github.com/vidhunt/vidhunt/where"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage builtin and custom providers",
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "print provider ids only")
	sourcesListCmd.Flags().BoolP("custom", "c", false, "show only custom Lua providers")
	sourcesListCmd.Flags().BoolP("builtin", "b", false, "show only builtin providers")

	sourcesListCmd.MarkFlagsMutuallyExclusive("custom", "builtin")
	sourcesListCmd.SetOut(os.Stdout)
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources and embeds in rank order",
	Run: func(cmd *cobra.Command, args []string) {
		metas := loadRegistry().ListSorted()

		switch {
		case lo.Must(cmd.Flags().GetBool("builtin")):
			metas = lo.Reject(metas, func(m provider.Meta, _ int) bool { return m.Custom })
		case lo.Must(cmd.Flags().GetBool("custom")):
			metas = lo.Filter(metas, func(m provider.Meta, _ int) bool { return m.Custom })
		}

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, m := range metas {
				cmd.Println(m.ID)
			}
			return
		}

		cmd.Println(renderProviders(metas))
	},
}

func renderProviders(metas []provider.Meta) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Name", "Kind", "Rank", "Flags", "Media", "Origin", "Status"})

	for _, m := range metas {
		origin := lo.Ternary(m.Custom, "custom", "builtin")
		status := "enabled"
		switch {
		case m.Disabled:
			status = "disabled"
		case m.External:
			status = "external"
		}

		caps := lo.Map(m.Capabilities, func(t media.Type, _ int) string { return string(t) })
		tw.AppendRow(table.Row{m.ID, m.Name, m.Kind, m.Rank, m.Flags.String(), strings.Join(caps, ","), origin, style.Status(status)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func init() {
	sourcesCmd.AddCommand(sourcesInfoCmd)
	sourcesInfoCmd.SetOut(os.Stdout)
}

var sourcesInfoCmd = &cobra.Command{
	Use:               "info [id]",
	Short:             "Describe a provider",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProviderIDs,
	Run: func(cmd *cobra.Command, args []string) {
		registry := loadRegistry()
		id := args[0]

		meta, ok := registry.Describe(id).Get()
		if !ok {
			msg := fmt.Sprintf("unknown provider %q", id)
			if similar := closestIDs(id, registry.IDs()); len(similar) > 0 {
				msg += fmt.Sprintf(", did you mean %s?", strings.Join(similar, ", "))
			}
			handleErr(fmt.Errorf("%s", msg))
		}

		field := func(name string, value any) {
			cmd.Printf("%s %v\n", style.Fg(color.Purple)(name+":"), value)
		}

		cmd.Println(style.Bold(meta.Name))
		field("id", meta.ID)
		field("kind", meta.Kind)
		field("rank", meta.Rank)
		field("flags", lo.Ternary(len(meta.Flags) == 0, style.Faint("none"), meta.Flags.String()))
		if meta.Kind == provider.KindSource {
			caps := lo.Map(meta.Capabilities, func(t media.Type, _ int) string { return string(t) })
			field("media", strings.Join(caps, ", "))
			field("external", meta.External)
		}
		field("custom", meta.Custom)
		field("disabled", meta.Disabled)
	},
}

// closestIDs returns the ids that fuzzily match id, best first.
func closestIDs(id string, ids []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(id, ids)
	sort.Sort(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) string { return r.Target })
}

func init() {
	sourcesCmd.AddCommand(sourcesRemoveCmd)

	sourcesRemoveCmd.Flags().StringArrayP("name", "n", []string{}, "name of the custom provider script to remove")
	lo.Must0(sourcesRemoveCmd.RegisterFlagCompletionFunc("name", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names, err := customScripts()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return lo.Map(names, func(name string, _ int) string { return util.FileStem(name) }), cobra.ShellCompDirectiveNoFileComp
	}))
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove custom provider scripts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lo.Must(cmd.Flags().GetStringArray("name")) {
			path := filepath.Join(where.Sources(), name+constant.CustomProviderExtension)
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s successfully removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

// customScripts lists the provider script file names in the sources directory, the common library included.
func customScripts() ([]string, error) {
	files, err := filesystem.API().ReadDir(where.Sources())
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(files, func(f os.FileInfo, _ int) (string, bool) {
		return f.Name(), !f.IsDir() && filepath.Ext(f.Name()) == constant.CustomProviderExtension
	}), nil
}

func init() {
	sourcesCmd.AddCommand(sourcesGenCmd)

	sourcesGenCmd.Flags().StringP("name", "n", "", "display name of the new provider")
	sourcesGenCmd.Flags().StringP("url", "u", "", "base URL of the site it scrapes")
	sourcesGenCmd.Flags().StringP("id", "i", "", "provider id, derived from the name when empty")
	sourcesGenCmd.Flags().IntP("rank", "r", 1, "rank of the provider, unique among enabled sources")

	lo.Must0(sourcesGenCmd.MarkFlagRequired("name"))
	lo.Must0(sourcesGenCmd.MarkFlagRequired("url"))
}

var sourcesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a new Lua source script",
	Long:  `Generate a Lua source script with the metadata and scrape functions filled in.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		name := lo.Must(cmd.Flags().GetString("name"))
		id := lo.Must(cmd.Flags().GetString("id"))
		if id == "" {
			id = custom.IDfromName(name)
		}

		s := struct {
			Name          string
			URL           string
			Author        string
			ID            string
			Rank          string
			ScrapeMovieFn string
			ScrapeShowFn  string
		}{
			Name:          name,
			URL:           lo.Must(cmd.Flags().GetString("url")),
			Author:        author,
			ID:            id,
			Rank:          strconv.Itoa(lo.Must(cmd.Flags().GetInt("rank"))),
			ScrapeMovieFn: constant.ScrapeMovieFn,
			ScrapeShowFn:  constant.ScrapeShowFn,
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		tmpl, err := template.New("source").Funcs(funcMap).Parse(constant.SourceTemplate)
		handleErr(err)

		target := filepath.Join(where.Sources(), util.SanitizeFilename(s.Name)+constant.CustomProviderExtension)
		exists, err := filesystem.API().Exists(target)
		handleErr(err)
		if exists {
			handleErr(fmt.Errorf("%s already exists", target))
		}

		f, err := filesystem.API().Create(target)
		handleErr(err)

		defer util.Ignore(f.Close)

		handleErr(tmpl.Execute(f, s))

		cmd.Println(target)
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesUpdateCmd)

	sourcesUpdateCmd.Flags().String("url", "", "base URL to fetch scripts from")
	lo.Must0(viper.BindPFlag(key.SourcesUpdateURL, sourcesUpdateCmd.Flags().Lookup("url")))
}

var sourcesUpdateCmd = &cobra.Command{
	Use:   "update [names...]",
	Short: "Update custom provider scripts from the configured url",
	Long: `Download the named scripts, or every installed one when none are given,
and replace the local copies whose content changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		names := lo.Map(args, func(name string, _ int) string {
			if filepath.Ext(name) == constant.CustomProviderExtension {
				return name
			}
			return name + constant.CustomProviderExtension
		})

		if len(names) == 0 {
			var err error
			names, err = customScripts()
			handleErr(err)
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Updating %s...", icon.Get(icon.Progress), util.Quantify(len(names), "script", "scripts")))
		updated, err := provider.UpdateScripts(context.Background(), provider.UpdateOptions{
			BaseURL: viper.GetString(key.SourcesUpdateURL),
			Dir:     where.Sources(),
			Names:   names,
			Fetcher: network.NewStandard(nil),
		})
		erase()

		for _, name := range updated {
			fmt.Printf("%s updated %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(util.FileStem(name)))
		}

		if len(updated) == 0 && err == nil {
			fmt.Printf("%s everything is up to date\n", icon.Get(icon.Success))
		}

		handleErr(err)
	},
}
