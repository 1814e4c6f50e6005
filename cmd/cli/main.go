package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/whodunit/cmd/cli/play"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	// A .env file is optional outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(play.Group)
	rootCmd.AddCommand(play.Play)
}

var rootCmd = &cobra.Command{
	Use:  "whodunit-cli",
	Long: `Command line utilities for Whodunit https://github.com/myrjola/whodunit`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
