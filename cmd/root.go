package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"composer-push/pkg/cmd"
	"composer-push/pkg/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "composer-push",
		Short: "A CLI tool to archive a Composer package and push it to a Nexus or Artifactory repository",
		Long:  `A command-line interface to package a Composer project into a zip archive, stamp its version and upload it to a Nexus or Artifactory Composer repository, negotiating credentials from the command line, composer.json, auth.json or the Docker credential store.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbosity, _ := cmd.Flags().GetCount("verbose")
			if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
				verbosity = utils.VerbosityQuiet
			}
			utils.SetVerbosity(verbosity)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity (-v for debug, -vv for trace)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only output errors")
	rootCmd.PersistentFlags().StringP("working-dir", "d", ".", "Use the given directory as the project root")

	rootCmd.AddCommand(cmd.NewPushCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())

	err := rootCmd.Execute()
	code := cmd.ExitCode(err)
	// Errors with a dedicated exit code were already reported.
	if code == cmd.ExitFailure {
		log.Error().Msg(err.Error())
	}
	if cleanupErr := utils.Cleanup(); cleanupErr != nil {
		log.Warn().Err(cleanupErr).Msg("Cleanup failed")
	}
	os.Exit(code)
}
