package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/adapter"
	"github.com/eliteGoblin/privguard/internal/config"
	"github.com/eliteGoblin/privguard/internal/dispatch"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
	"github.com/eliteGoblin/privguard/internal/netmon"
	"github.com/eliteGoblin/privguard/internal/usecase"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg    *config.Config
	paths  *infra.AppPaths
	logger *zap.Logger

	store  domain.ConfigStore
	runner domain.CommandRunner
	fs     domain.FileSystemManager

	telemetry   *adapter.TelemetryAdapter
	firewall    *adapter.FirewallAdapter
	permissions *adapter.PermissionsAdapter
	cleanup     *adapter.CleanupAdapter
	packages    *adapter.PackagesAdapter
	hosts       *adapter.HostsBlock
	updates     *adapter.UpdatePolicy
	autostart   *infra.AutostartManager

	history   *usecase.ScoreHistory
	dashboard *usecase.Dashboard
	coord     *dispatch.Coordinator
}

// newApp loads configuration and wires every component.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dir := dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	paths := infra.DetectAppPaths(dir)
	if cfg.HostsFile != "" {
		paths.HostsFile = cfg.HostsFile
	}

	logger := createLogger(paths.LogPath, cfg.LogLevel, verbose)

	store := infra.NewConfigStore()
	runner := infra.NewCommandRunner()
	fs := infra.NewFileSystemManager(logger)
	services := infra.NewServiceController(logger)

	a := &app{
		cfg:         cfg,
		paths:       paths,
		logger:      logger,
		store:       store,
		runner:      runner,
		fs:          fs,
		telemetry:   adapter.NewTelemetryAdapter(store, services, runner, logger),
		firewall:    adapter.NewFirewallAdapter(runner, logger),
		permissions: adapter.NewPermissionsAdapter(store, logger),
		cleanup:     adapter.NewCleanupAdapter(fs, store, infra.CleanupEnv(), logger),
		packages:    adapter.NewPackagesAdapter(runner, logger),
		hosts:       adapter.NewHostsBlock(fs, paths.HostsFile, logger),
		updates:     adapter.NewUpdatePolicy(store, logger),
		autostart:   infra.NewAutostartManager(store, logger),
	}

	historyStore := infra.NewFileHistoryStore(paths.DataDir)
	a.history = usecase.NewScoreHistoryWithClock(historyStore, cfg.History.MaxEntries, time.Now, logger)
	a.dashboard = usecase.NewDashboard(a.telemetry, a.permissions, a.firewall, a.cleanup, a.history, logger)
	a.coord = dispatch.New(dispatch.Config{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
	}, logger)

	logger.Debug("privguard initialized",
		zap.String("data_dir", paths.DataDir),
		zap.String("hosts_file", paths.HostsFile),
		zap.Bool("elevated", infra.IsElevated()))
	return a, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, _, err := config.LoadFromPath(configPath)
		return cfg, err
	}
	dir := dataDir
	if dir == "" {
		dir = infra.DefaultDataDir()
	}
	cfg, _, err := config.Load(dir)
	return cfg, err
}

func (a *app) close() {
	a.coord.Stop()
	_ = a.logger.Sync()
}

// adapters returns every adapter by domain.
func (a *app) adapters() map[domain.Domain]domain.Adapter {
	return map[domain.Domain]domain.Adapter{
		domain.DomainTelemetry:   a.telemetry,
		domain.DomainFirewall:    a.firewall,
		domain.DomainPermissions: a.permissions,
		domain.DomainCleanup:     a.cleanup,
		domain.DomainPackages:    a.packages,
	}
}

// scoredDomains are scanned when no domain is named.
var scoredDomains = []domain.Domain{
	domain.DomainTelemetry,
	domain.DomainPermissions,
	domain.DomainFirewall,
	domain.DomainCleanup,
}

func (a *app) adapter(name string) (domain.Adapter, error) {
	ad, ok := a.adapters()[domain.Domain(strings.ToLower(name))]
	if !ok {
		return nil, fmt.Errorf("unknown domain %q (one of %s)", name, strings.Join(domainNames(), ", "))
	}
	return ad, nil
}

func domainNames() []string {
	names := []string{
		string(domain.DomainTelemetry),
		string(domain.DomainFirewall),
		string(domain.DomainPermissions),
		string(domain.DomainCleanup),
		string(domain.DomainPackages),
	}
	sort.Strings(names)
	return names
}

// profiles builds the profile manager, opening the encrypted store.
// The caller closes the returned store.
func (a *app) profiles() (*usecase.ProfileManager, domain.ProfileStore, error) {
	store, err := infra.OpenProfileStore(a.paths.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open profile store: %w", err)
	}
	exe, err := infra.ExecutablePath()
	if err != nil {
		exe = ""
	}
	m := usecase.NewProfileManager(
		[]domain.Adapter{a.telemetry, a.permissions, a.firewall},
		a.autostart, exe, store, a.logger)
	return m, store, nil
}

// classifier builds the connection classifier and its hostname cache.
// The caller closes the cache.
func (a *app) classifier() (*netmon.Classifier, *netmon.HostnameCache) {
	cache := netmon.NewHostnameCache(infra.NewHostnameResolver(), a.cfg.Network.ResolverWorkers, a.logger)
	c := netmon.NewClassifier(
		infra.NewConnectionLister(),
		infra.NewProcessManager(),
		cache,
		a.cfg.Network.SuspectKeywords,
		a.logger)
	return c, cache
}

func warnIfNotElevated() {
	if !infra.IsElevated() {
		fmt.Println("Warning: not running elevated; most changes will fail with permission denied.")
	}
}
