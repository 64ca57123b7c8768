package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/adapters/geo"
	"github.com/mikey/zimbra-queue-guard/internal/adapters/notify"
	"github.com/mikey/zimbra-queue-guard/internal/adapters/zimbra"
	"github.com/mikey/zimbra-queue-guard/internal/alerts"
	"github.com/mikey/zimbra-queue-guard/internal/config"
	"github.com/mikey/zimbra-queue-guard/internal/core"
	"github.com/mikey/zimbra-queue-guard/internal/factory"
	"github.com/mikey/zimbra-queue-guard/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register admin client
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.AdminClient {
		return zimbra.NewClient(zimbra.Config{
			URL:                cfg.GetString("zimbra.url"),
			AdminUser:          cfg.GetString("zimbra.admin_user"),
			AdminPassword:      cfg.GetString("zimbra.admin_password"),
			QueueName:          cfg.GetString("zimbra.queue_name"),
			ScanLimit:          cfg.GetInt("zimbra.scan_limit"),
			InsecureSkipVerify: cfg.GetBool("zimbra.insecure_skip_verify"),
		}, logger)
	}); err != nil {
		return nil, err
	}

	// Register geolocation resolver
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.GeoResolver {
		return geo.NewIPInfoResolver(geo.Config{
			BaseURL:     cfg.GetString("geo.base_url"),
			Token:       cfg.GetString("geo.token"),
			MaxAttempts: cfg.GetInt("geo.max_attempts"),
		}, logger)
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Notifier {
		return notify.NewTelegramNotifier(notify.Config{
			APIURL:   cfg.GetString("telegram.api_url"),
			BotToken: cfg.GetString("telegram.bot_token"),
			ChatID:   cfg.GetString("telegram.chat_id"),
		}, cfg.GetString("zimbra.server_name"), logger)
	}); err != nil {
		return nil, err
	}

	// Register state store factory and store
	if err := container.Provide(factory.NewStateFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StateFactory) (core.StateStore, error) {
		return f.CreateStateStore()
	}); err != nil {
		return nil, err
	}

	// Register error reporter
	if err := container.Provide(func(cfg *config.Config, notifier core.Notifier, logger *zap.Logger) (core.ErrorReporter, error) {
		window, err := cfg.GetDuration("alerts.dedup_window")
		if err != nil {
			return nil, err
		}
		return alerts.NewReporter(notifier, logger, window), nil
	}); err != nil {
		return nil, err
	}

	// Register remediator
	if err := container.Provide(func(cfg *config.Config, admin core.AdminClient, notifier core.Notifier, logger *zap.Logger) core.AccountRemediator {
		return core.NewRemediator(admin, notifier, logger, cfg.GetString("monitor.home_country"))
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(
		cfg *config.Config,
		resolver core.GeoResolver,
		remediator core.AccountRemediator,
		logger *zap.Logger,
	) *core.Classifier {
		return core.NewClassifier(
			resolver,
			remediator,
			logger,
			cfg.GetInt("monitor.count_threshold"),
			cfg.GetString("monitor.domain_suffix"),
			cfg.GetStringSlice("monitor.known_services"),
			cfg.GetString("monitor.home_country"),
			cfg.GetBool("monitor.treat_unknown_as_foreign"),
		)
	}); err != nil {
		return nil, err
	}

	// Register cycle coordinator
	if err := container.Provide(func(
		cfg *config.Config,
		admin core.AdminClient,
		classifier *core.Classifier,
		store core.StateStore,
		notifier core.Notifier,
		reporter core.ErrorReporter,
		logger *zap.Logger,
	) *core.Coordinator {
		return core.NewCoordinator(admin, classifier, store, notifier, reporter, logger,
			cfg.GetString("zimbra.server_name"))
	}); err != nil {
		return nil, err
	}

	return container, nil
}
