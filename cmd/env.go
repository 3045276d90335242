package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidhunt/vidhunt/color"
	"github.com/vidhunt/vidhunt/config"
	"github.com/vidhunt/vidhunt/style"
	"github.com/vidhunt/vidhunt/where"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "only show variables that are unset")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envNames returns the environment variables read at startup, sorted.
func envNames() []string {
	names := lo.Map(lo.Values(config.Default), func(f config.Field, _ int) string {
		return f.Env()
	})
	names = append(names, where.EnvConfigPath)
	slices.Sort(names)
	return names
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long: `List supported environment variables and their values.
Variables loaded from a .env file in the working directory are marked.`,
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		dotenv, _ := godotenv.Read()

		for _, env := range envNames() {
			value := os.Getenv(env)
			present := value != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(env))
			cmd.Print("=")

			if !present {
				cmd.Println(style.Fg(color.Red)("unset"))
				continue
			}

			cmd.Print(style.Fg(color.Green)(value))
			if _, ok := dotenv[env]; ok {
				cmd.Print(" ", style.Faint("(.env)"))
			}
			cmd.Println()
		}
	},
}
