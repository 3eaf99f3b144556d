package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriLog/internal/app"
)

var (
	profileFlag string
	offlineFlag bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "rorilog",
	Short: "A terminal log for short notes",
	Long: `RoriLog appends short text notes to a durable, append-only log and shows
them in order. Saving happens in the background: a note appears at once as
pending and settles to saved or failed when the backend answers.`,
	Run: func(cmd *cobra.Command, args []string) {
		runApplication()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func appOptions() app.Options {
	return app.Options{
		Profile: profileFlag,
		Offline: offlineFlag,
		Verbose: verboseFlag,
	}
}

func runApplication() {
	application, err := app.NewApplication(appOptions())
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "profile to use instead of the active one")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "keep the log in memory for this run only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log at debug level")

	// Add subcommands
	rootCmd.AddCommand(profileCmd)
}
