package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriLog/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [profile-name]",
	Short: "Switch to a profile and open the log",
	Long:  `Switch to the specified profile and immediately open the log in the terminal UI.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profileName := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		profileFlag = profileName
		runApplication()
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
