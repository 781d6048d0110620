package providers

import (
	"github.com/rs/zerolog"

	"github.com/km-arc/go-laravel/framework/config"
	"github.com/km-arc/go-laravel/framework/container"
	"github.com/km-arc/go-laravel/framework/routing"
	"github.com/km-arc/go-laravel/framework/telemetry"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration into the container.
//
// Bound abstracts:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	app.Instance("config", p.Config)
	app.Alias("config", "configuration")
}

// ── TelemetryServiceProvider ──────────────────────────────────────────────────

// TelemetryServiceProvider exposes the logger, metrics and tracing built
// at bootstrap. Metrics is absent when disabled.
//
// Bound abstracts:
//   - "log"      → zerolog.Logger
//   - "metrics"  → *telemetry.Metrics
//   - "tracing"  → *telemetry.Tracing
type TelemetryServiceProvider struct {
	container.BaseProvider
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Tracing *telemetry.Tracing
}

func (p *TelemetryServiceProvider) Register(app *container.Container) {
	app.Instance("log", p.Logger)
	app.Instance("tracing", p.Tracing)
	if p.Metrics != nil {
		app.Instance("metrics", p.Metrics)
	}
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and, at boot, the
// diagnostic routes:
//
//	GET /debug/multibindings  resolution order of every ordered list
//	GET <metrics path>        Prometheus exposition (when metrics are on)
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Singleton("router", func(c *container.Container) any {
		log := zerolog.Nop()
		if c.Bound("log") {
			log = telemetry.Component(container.Resolve[zerolog.Logger](c, "log"), "http")
		}
		return routing.New(log)
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Container) {
	router := container.Resolve[*routing.Router](app, "router")
	router.Get("/debug/multibindings", routing.Multibindings(app))

	if !app.Bound("metrics") {
		return
	}
	cfg := container.Resolve[*config.Config](app, "config")
	metrics := container.Resolve[*telemetry.Metrics](app, "metrics")
	router.Handle(cfg.Metrics.Path, metrics.Handler())
}
