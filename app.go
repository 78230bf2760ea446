package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Afveis/cornerstones/diagram"
)

// Output formats understood by RenderIndicator
const (
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatMarkup = "markup"
	FormatJSON   = "json"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *diagram.Config
	Logger     *zap.Logger
	Engine     *diagram.Engine
	Store      diagram.Store
	Syncer     *diagram.Syncer
	MQTTClient *diagram.MQTTClient
	Publisher  *diagram.Publisher
	Renderer   *diagram.Renderer

	sqlite *diagram.SQLiteStore
	sinks  []diagram.Sink
}

// NewApp creates a new App instance
func NewApp(config *diagram.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		Config:   config,
		Logger:   logger,
		Renderer: diagram.NewRenderer(),
	}
}

// Open loads the workspace (or seeds a new one), wires the persistence sinks
// and, when withMQTT is set, connects the change feed
func (a *App) Open(ctx context.Context, withMQTT bool) error {
	file := diagram.NewFileStore(a.Config.Storage.Path)
	a.Store = file
	a.sinks = []diagram.Sink{file}

	if a.Config.Storage.SQLite != "" {
		db, err := diagram.NewSQLiteStore(a.Config.Storage.SQLite, a.Config.Storage.UserID)
		if err != nil {
			return fmt.Errorf("opening sqlite store: %w", err)
		}
		a.sqlite = db
		a.Store = db
		a.sinks = append(a.sinks, db)
	}

	ws, err := a.loadWorkspace(ctx, file)
	if err != nil {
		return err
	}
	a.Engine = diagram.NewEngine(ws, a.Config.Template.GroupDefaults())

	if withMQTT {
		client, err := diagram.ConnectMQTT(a.Config.MQTT, a.Execute, a.Logger)
		if err != nil {
			return fmt.Errorf("initializing MQTT: %w", err)
		}
		if client != nil {
			a.MQTTClient = client
			a.Publisher = diagram.NewPublisher(client.Client(), a.Config.MQTT.PublishPrefix, a.Logger)
			a.sinks = append(a.sinks, a.Publisher)
		}
	}

	interval, err := a.Config.SyncInterval()
	if err != nil {
		return err
	}
	a.Syncer = diagram.NewSyncer(interval, a.Logger, a.sinks...)
	a.Engine.Subscribe(a.Syncer.Notify)
	return nil
}

// loadWorkspace prefers the configured store and falls back to the JSON file
// when the database has no row yet
func (a *App) loadWorkspace(ctx context.Context, file *diagram.FileStore) (diagram.Workspace, error) {
	ws, err := a.Store.Load(ctx)
	if err == nil {
		a.Logger.Info("loaded workspace", zap.String("store", a.Store.Name()),
			zap.Int("indicators", len(ws.Indicators)))
		return ws, nil
	}
	if !errors.Is(err, diagram.ErrNoWorkspace) {
		return diagram.Workspace{}, fmt.Errorf("loading workspace from %s: %w", a.Store.Name(), err)
	}

	if a.Store != diagram.Store(file) {
		ws, err = file.Load(ctx)
		if err == nil {
			a.Logger.Info("loaded workspace", zap.String("store", file.Name()))
			return ws, nil
		}
		if !errors.Is(err, diagram.ErrNoWorkspace) {
			return diagram.Workspace{}, fmt.Errorf("loading workspace from %s: %w", file.Name(), err)
		}
	}

	a.Logger.Info("no saved workspace, starting from template",
		zap.Int("themeCount", a.Config.Template.ThemeCount),
		zap.Int("sliceCount", a.Config.Template.SliceCount))
	return diagram.NewWorkspace(a.Config.Template), nil
}

// Execute runs a command against the engine and logs the outcome
func (a *App) Execute(cmd diagram.Command) (diagram.CommandResult, error) {
	res, err := a.Engine.Execute(cmd)
	if err != nil {
		a.Logger.Warn("command failed", zap.String("op", cmd.Op), zap.Error(err))
		return res, err
	}
	if !res.Applied {
		a.Logger.Info("command rejected", zap.String("op", cmd.Op),
			zap.Int("group", cmd.Group), zap.Int("slice", cmd.Slice))
	} else {
		a.Logger.Debug("command applied", zap.String("op", cmd.Op), zap.Uint64("version", res.Version))
	}
	return res, nil
}

// Scene builds the scene of an indicator. Id 0 selects the active indicator.
func (a *App) Scene(id int) (diagram.Scene, error) {
	if id == 0 {
		id = a.Engine.ActiveID()
	}
	ind, err := a.Engine.Indicator(id)
	if err != nil {
		return diagram.Scene{}, err
	}
	return diagram.BuildScene(&ind, a.Config.Diagram), nil
}

// RenderIndicator writes an indicator in the given format
func (a *App) RenderIndicator(w io.Writer, id int, format string) error {
	scene, err := a.Scene(id)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case FormatSVG:
		return a.Renderer.RenderToSVG(w, &scene)
	case FormatPNG:
		return a.Renderer.RenderToPNG(w, &scene)
	case FormatMarkup:
		return diagram.WriteSVGMarkup(w, &scene)
	case FormatJSON:
		return writeJSON(w, scene)
	default:
		return fmt.Errorf("unknown format %q (want svg, png, markup or json)", format)
	}
}

// RunServe serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) RunServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           newHTTPServer(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close flushes pending changes and releases connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Syncer != nil {
		if err := a.Syncer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing workspace: %w", err))
		}
	}
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sqlite store: %w", err))
		}
	}
	return errors.Join(errs...)
}
