package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-laravel/framework/config"
	"github.com/km-arc/go-laravel/framework/container"
	gohttp "github.com/km-arc/go-laravel/framework/http"
	"github.com/km-arc/go-laravel/framework/multibind"
	"github.com/km-arc/go-laravel/framework/providers"
	"github.com/km-arc/go-laravel/framework/routing"
	"github.com/km-arc/go-laravel/framework/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly,
// exactly like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config  *config.Config
	log     zerolog.Logger
	tracing *telemetry.Tracing
}

// New loads and validates configuration, builds telemetry, and registers
// the framework providers. Every ordered list created on the returned
// application is traced and, when metrics are on, measured.
func New(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := telemetry.NewLogger(cfg.Log).With().Str("app", cfg.App.Name).Logger()

	tracing, err := telemetry.NewTracing(cfg.Tracing, cfg.App.Name, cfg.App.Env)
	if err != nil {
		return nil, err
	}
	metrics := telemetry.NewMetrics(cfg.Metrics)

	engineOpts := []multibind.EngineOption{multibind.WithTracer(tracing.Tracer())}
	if metrics != nil {
		engineOpts = append(engineOpts, multibind.WithRecorder(metrics))
	}
	c := container.New(
		container.WithLogger(telemetry.Component(log, "container")),
		container.WithEngineOptions(engineOpts...),
	)
	if cfg.App.Debug {
		resolved := telemetry.Component(log, "container")
		c.AfterResolving(func(abstract string, instance any) {
			resolved.Debug().Str("abstract", abstract).Type("type", instance).Msg("resolved")
		})
	}

	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		config:    cfg,
		log:       log,
		tracing:   tracing,
	}

	// Register framework core providers (same order as Laravel)
	app.Register(&providers.ConfigServiceProvider{Config: cfg})
	app.Register(&providers.TelemetryServiceProvider{Logger: log, Metrics: metrics, Tracing: tracing})
	app.Register(&providers.RoutingServiceProvider{})
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot finalizes every ordered list, then runs the Boot() phase on all
// providers. A duplicate contribution or a malformed order tag fails here.
func (a *Application) Boot() error {
	if err := a.Providers.Boot(); err != nil {
		return fmt.Errorf("app: boot: %w", err)
	}
	return nil
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() zerolog.Logger { return a.log }

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Run boots the application (if needed) and serves HTTP until ctx is
// cancelled, then drains in-flight requests and flushes spans.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	ln, err := net.Listen("tcp", ":"+a.config.App.Port)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	a.log.Info().Str("addr", ln.Addr().String()).Str("env", a.config.App.Env).Msg("server listening")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return errors.Join(err, a.tracing.Shutdown(context.Background()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.log.Info().Msg("shutting down")
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errc; !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	return errors.Join(err, a.tracing.Shutdown(shutdownCtx))
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.config.App.Debug }
func (a *Application) Version() string     { return "0.2.0" }

// Controller is an embeddable base for HTTP controllers.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}
func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
