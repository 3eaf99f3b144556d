package cmd

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriLog/internal/config"
)

var (
	profileBackend string
	profileTarget  string
	profileSheet   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage storage profiles",
	Long:  `Manage storage profiles. A profile names the backend that holds the log and where it lives.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Backend: %s\n", profile.Backend)
			if target := cfg.ResolveTarget(profile); target != "" {
				fmt.Printf("    Target: %s\n", redactTarget(target))
			}
			if profile.Sheet != "" {
				fmt.Printf("    Sheet: %s\n", profile.Sheet)
			}
			fmt.Println()
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		sheet := profile.Sheet
		if sheet == "" {
			sheet = "Entries (default)"
		}
		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Backend: %s\n", profile.Backend)
		fmt.Printf("Target: %s\n", redactTarget(cfg.ResolveTarget(profile)))
		fmt.Printf("Sheet: %s\n", sheet)
		valid := "Yes"
		if err := profile.Validate(); err != nil {
			valid = "No (" + err.Error() + ")"
		}
		fmt.Printf("Valid: %s\n", valid)
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Long: `Add a new profile. Values not given as flags are prompted for.

Example:
  rorilog profile add team --backend postgres --target postgres://localhost/rorilog`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label:    "Profile name",
				Validate: requireValue,
			}
			profileName, err = prompt.Run()
			if err != nil {
				log.Fatalf("Prompt failed: %v", err)
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			log.Fatalf("Profile '%s' already exists", profileName)
		}

		profile, err := promptProfile(cmd, config.Profile{Backend: "jsonl"})
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}
		if err := profile.Validate(); err != nil {
			log.Fatalf("Invalid profile: %v", err)
		}

		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName, err := profileArg(cfg, args, "Select profile to edit", "")
		if err != nil {
			log.Fatalf("Selection failed: %v", err)
		}

		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		profile, err = promptProfile(cmd, profile)
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}
		if err := profile.Validate(); err != nil {
			log.Fatalf("Invalid profile: %v", err)
		}

		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Long:  `Delete a profile. The log it points at is left untouched.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName, err := profileArg(cfg, args, "Select profile to delete", "")
		if err != nil {
			log.Fatalf("Selection failed: %v", err)
		}

		if _, exists := cfg.Profiles[profileName]; !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		removeProfile(cfg, profileName)

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully!\n", profileName)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if len(args) == 0 && len(cfg.Profiles) < 2 {
			fmt.Println("No other profiles available to switch to")
			return
		}
		profileName, err := profileArg(cfg, args, "Select profile to switch to", cfg.ActiveProfile)
		if err != nil {
			log.Fatalf("Selection failed: %v", err)
		}

		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

// profileArg returns the profile named on the command line, or lets the
// user pick one. exclude is left out of the choices.
func profileArg(cfg *config.Config, args []string, label, exclude string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	names := slices.DeleteFunc(cfg.ProfileNames(), func(name string) bool { return name == exclude })
	if len(names) == 0 {
		return "", errors.New("no profiles available")
	}

	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	return name, err
}

// promptProfile fills a profile from flags, prompting for anything not set.
func promptProfile(cmd *cobra.Command, current config.Profile) (config.Profile, error) {
	profile := current
	var err error

	if cmd.Flags().Changed("backend") {
		profile.Backend = profileBackend
	} else {
		backends := config.Backends()
		cursor := max(slices.Index(backends, current.Backend), 0)
		backendPrompt := promptui.Select{
			Label:     "Backend",
			Items:     backends,
			CursorPos: cursor,
		}
		if _, profile.Backend, err = backendPrompt.Run(); err != nil {
			return profile, err
		}
	}

	if cmd.Flags().Changed("target") {
		profile.Target = profileTarget
	} else if profile.Backend != "memory" {
		targetPrompt := promptui.Prompt{
			Label:   targetLabel(profile.Backend),
			Default: current.Target,
		}
		if profile.Target, err = targetPrompt.Run(); err != nil {
			return profile, err
		}
	}

	if cmd.Flags().Changed("sheet") {
		profile.Sheet = profileSheet
	} else {
		sheetPrompt := promptui.Prompt{
			Label:   "Sheet name (optional)",
			Default: current.Sheet,
		}
		if profile.Sheet, err = sheetPrompt.Run(); err != nil {
			return profile, err
		}
	}

	profile.Backend = strings.ToLower(strings.TrimSpace(profile.Backend))
	profile.Target = strings.TrimSpace(profile.Target)
	profile.Sheet = strings.TrimSpace(profile.Sheet)
	return profile, nil
}

func targetLabel(backend string) string {
	switch backend {
	case "jsonl":
		return "Directory (empty for default)"
	case "sqlite", "bolt":
		return "File (empty for default)"
	case "redis":
		return "Redis address"
	case "postgres":
		return "Postgres connection string"
	case config.BackendRemote:
		return "Server URL"
	default:
		return "Target"
	}
}

// removeProfile deletes name, moving the active profile elsewhere and
// recreating the default profile if nothing is left.
func removeProfile(cfg *config.Config, name string) {
	delete(cfg.Profiles, name)
	if cfg.ActiveProfile != name {
		return
	}
	if names := cfg.ProfileNames(); len(names) > 0 {
		cfg.ActiveProfile = names[0]
		return
	}
	cfg.ActiveProfile = config.DefaultProfile
	cfg.Profiles[config.DefaultProfile] = config.DefaultProfileFor(cfg.DataDir())
}

// redactTarget hides the password in connection strings.
func redactTarget(target string) string {
	scheme, rest, ok := strings.Cut(target, "://")
	if !ok {
		return target
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return target
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return target
	}
	return scheme + "://" + user + ":****@" + host
}

func requireValue(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{addProfileCmd, editProfileCmd} {
		c.Flags().StringVar(&profileBackend, "backend", "", "storage backend ("+strings.Join(config.Backends(), "|")+")")
		c.Flags().StringVar(&profileTarget, "target", "", "directory, file, address, DSN or URL for the backend")
		c.Flags().StringVar(&profileSheet, "sheet", "", "sheet name (default Entries)")
	}

	// Add subcommands to profile
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
