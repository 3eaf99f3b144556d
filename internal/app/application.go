package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriLog/internal/bridge"
	"github.com/Rorical/RoriLog/internal/client"
	"github.com/Rorical/RoriLog/internal/config"
	"github.com/Rorical/RoriLog/internal/core"
	"github.com/Rorical/RoriLog/internal/dispatcher"
	"github.com/Rorical/RoriLog/internal/eventbus"
	"github.com/Rorical/RoriLog/internal/models"
	"github.com/Rorical/RoriLog/internal/store"
	"github.com/Rorical/RoriLog/internal/utils"
)

// Options are the command line overrides for a run.
type Options struct {
	Profile string // Use this profile instead of the active one
	Offline bool   // Use the in-memory fake bridge
	Verbose bool   // Log at debug level
}

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	store      *store.EntryStore  // nil unless the log is local
	service    *core.EntryService // nil unless the log is local
	busBridge  *bridge.BusBridge  // nil unless the log is local
	client     *client.Client
	model      *AppModel
	logFile    *os.File
	cancel     context.CancelFunc
}

type AppModel struct {
	appModel   models.AppModel
	input      textinput.Model
	client     *client.Client
	dispatcher *dispatcher.EventDispatcher
}

// LoadConfig loads the config and applies the profile override.
func LoadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.Profile != "" {
		if err := cfg.UseProfile(opts.Profile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Current().Validate(); err != nil {
		return nil, fmt.Errorf("profile '%s': %w", cfg.ActiveProfile, err)
	}
	return cfg, nil
}

// OpenStore opens the entry store a local profile points at.
func OpenStore(ctx context.Context, cfg *config.Config, profile config.Profile) (*store.EntryStore, error) {
	if profile.Backend == config.BackendRemote {
		return nil, fmt.Errorf("profile '%s' is remote; it has no local store", cfg.ActiveProfile)
	}
	wb, err := store.OpenWorkbook(ctx, profile.Backend, cfg.ResolveTarget(profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s workbook: %w", profile.Backend, err)
	}
	return store.New(wb, profile.Sheet), nil
}

func NewApplication(opts Options) (*Application, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.GetLogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logFile, err := utils.SetupFileLogging(filepath.Join(cfg.DataDir(), utils.LogFileName), level)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)

	application := &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		logFile:    logFile,
		cancel:     cancel,
	}

	profile := cfg.Current()
	backendName := profile.Backend
	var b bridge.Bridge
	switch {
	case opts.Offline:
		backendName = "offline"
		b = bridge.NewFake(disp)
	case profile.Backend == config.BackendRemote:
		b = bridge.NewHTTPBridge(ctx, profile.Target, disp, nil)
	default:
		st, err := OpenStore(ctx, cfg, profile)
		if err != nil {
			application.Stop()
			return nil, err
		}
		application.store = st
		application.service = core.NewEntryService(st, eb)
		application.busBridge = bridge.NewBusBridge(eb, disp, cfg.GetCallTimeout())
		b = application.busBridge
	}
	slog.Info("application configured", "profile", cfg.ActiveProfile, "backend", backendName)

	application.client = client.New(b)
	application.model = newAppModel(application.client, disp, backendName)
	return application, nil
}

func (app *Application) Start() error {
	// Start background services
	if app.service != nil {
		if err := app.service.Start(); err != nil {
			return fmt.Errorf("failed to initialize log: %w", err)
		}
		app.dispatcher.Start(app.busBridge.HandleCoreEvent)
	}

	app.client.Load()

	// Run UI
	p := tea.NewProgram(app.model)
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	if app.busBridge != nil {
		app.busBridge.Close()
	}
	if app.service != nil {
		app.service.Stop()
	}
	app.dispatcher.Stop()
	app.eventBus.Close()
	app.cancel()
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			slog.Error("closing store", "error", err)
		}
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func newAppModel(lc *client.Client, disp *dispatcher.EventDispatcher, backendName string) *AppModel {
	input := textinput.New()
	input.Placeholder = "Write a note and press Enter"
	input.CharLimit = 500
	input.Focus()

	return &AppModel{
		appModel: models.AppModel{
			Status:      client.StatusReady,
			BackendName: backendName,
		},
		input:      input,
		client:     lc,
		dispatcher: disp,
	}
}
