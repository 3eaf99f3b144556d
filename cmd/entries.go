package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/RoriLog/internal/app"
	"github.com/Rorical/RoriLog/internal/bridge"
	"github.com/Rorical/RoriLog/internal/config"
	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/store"
	"github.com/Rorical/RoriLog/internal/utils"
)

var entriesFormat string

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Read or append entries without the terminal UI",
}

var listEntriesCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every entry in order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := withLog(cmd.Context(),
			func(ctx context.Context, st *store.EntryStore) ([]string, error) {
				return st.ReadAll(ctx)
			},
			func(b bridge.Runner) { b.GetEntries() },
		)
		if err != nil {
			log.Fatalf("Failed to read entries: %v", err)
		}
		if err := writeEntries(os.Stdout, entriesFormat, entries); err != nil {
			log.Fatalf("Failed to print entries: %v", err)
		}
	},
}

var appendEntryCmd = &cobra.Command{
	Use:   "append <text>",
	Short: "Append one entry",
	Long:  `Append one entry. Multiple arguments are joined with spaces.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")
		entries, err := withLog(cmd.Context(),
			func(ctx context.Context, st *store.EntryStore) ([]string, error) {
				return st.Append(ctx, text)
			},
			func(b bridge.Runner) { b.SaveText(text) },
		)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("Saved. The log has %d entries.\n", len(entries))
	},
}

// withLog runs local against the active profile's store, or remote through
// the HTTP bridge when the profile points at a server.
func withLog(ctx context.Context, local func(context.Context, *store.EntryStore) ([]string, error), remote func(bridge.Runner)) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := app.LoadConfig(appOptions())
	if err != nil {
		return nil, err
	}
	level := cfg.GetLogLevel()
	if verboseFlag {
		level = slog.LevelDebug
	}
	utils.SetupLogging(os.Stderr, level)

	profile := cfg.Current()
	if profile.Backend == config.BackendRemote {
		return callBridge(ctx, profile.Target, remote)
	}

	st, err := app.OpenStore(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return local(ctx, st)
}

// callBridge issues one bridge call and waits for its outcome.
func callBridge(ctx context.Context, baseURL string, call func(bridge.Runner)) ([]string, error) {
	disp := dispatcher.NewEventDispatcher(nil)
	defer disp.Stop()

	var (
		entries []string
		failure string
	)
	runner := bridge.Run(bridge.NewHTTPBridge(ctx, baseURL, disp, nil)).
		WithSuccessHandler(func(e []string) { entries = e }).
		WithFailureHandler(func(message string) { failure = message })
	call(runner)

	if err := disp.RunNext(ctx); err != nil {
		return nil, err
	}
	if failure != "" {
		return nil, errors.New(failure)
	}
	return entries, nil
}

type entriesDocument struct {
	Entries []string `json:"entries" yaml:"entries"`
}

func writeEntries(w io.Writer, format string, entries []string) error {
	if entries == nil {
		entries = []string{}
	}
	switch strings.ToLower(format) {
	case "", "text":
		for i, e := range entries {
			if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, e); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entriesDocument{Entries: entries})
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entriesDocument{Entries: entries}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: must be text, json or yaml", format)
	}
}

func init() {
	listEntriesCmd.Flags().StringVarP(&entriesFormat, "format", "f", "text", "output format (text|json|yaml)")

	entriesCmd.AddCommand(listEntriesCmd)
	entriesCmd.AddCommand(appendEntryCmd)
	rootCmd.AddCommand(entriesCmd)
}
