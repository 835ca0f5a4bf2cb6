package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	datacite "github.com/goliatone/go-datacite"
	"github.com/goliatone/go-datacite/core"
	promrecorder "github.com/goliatone/go-datacite/metrics/prometheus"
	"github.com/goliatone/go-datacite/migrations"
	sqlstore "github.com/goliatone/go-datacite/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// app is the wiring shared by every subcommand.
type app struct {
	facade   *datacite.Facade
	service  *datacite.Service
	client   *persistence.Client
	registry *prometheus.Registry
}

func (o *rootOptions) persistenceConfig() sqlstore.PersistenceConfig {
	return sqlstore.PersistenceConfig{
		Driver:         o.v.GetString("database.driver"),
		DSN:            o.v.GetString("database.dsn"),
		Debug:          o.v.GetBool("database.debug"),
		OtelIdentifier: "doictl",
	}
}

func (o *rootOptions) openDatabase() (*persistence.Client, error) {
	cfg := o.persistenceConfig()
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("doictl: database dsn is required (--db-dsn or %s_DATABASE_DSN)", envPrefix)
	}
	return sqlstore.OpenClient(cfg)
}

// open builds the service. Commands that never touch identifiers pass
// withStore=false and run without a database.
func (o *rootOptions) open(withStore bool) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	opts := []datacite.Option{
		datacite.WithConfigProvider(core.NewCfgxConfigProvider(core.StaticRawConfigLoader{Values: o.coreSettings()})),
		datacite.WithMetricsRecorder(promrecorder.NewRecorder(a.registry)),
	}

	if withStore {
		client, err := o.openDatabase()
		if err != nil {
			return nil, err
		}
		a.client = client

		var factoryOpts []sqlstore.FactoryOption
		if o.v.GetBool("cache.enabled") {
			cacheCfg := repositorycache.DefaultConfig()
			cacheCfg.TTL = o.v.GetDuration("cache.ttl")
			cacheService, err := repositorycache.NewCacheService(cacheCfg)
			if err != nil {
				a.Close()
				return nil, err
			}
			factoryOpts = append(factoryOpts, sqlstore.WithCacheService(cacheService))
		}
		factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, factoryOpts...)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, datacite.WithIdentifierStore(factory.IdentifierStore()))
	}

	svc, err := datacite.NewService(datacite.Config{}, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	facade, err := datacite.NewFacade(svc)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc
	a.facade = facade
	return a, nil
}

func (a *app) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

// migrate applies the embedded schema for the configured driver.
func (o *rootOptions) migrate(ctx context.Context) error {
	client, err := o.openDatabase()
	if err != nil {
		return err
	}
	defer client.Close()
	return migrations.Apply(ctx, client, o.persistenceConfig().Driver)
}

// writeCounters prints every counter series gathered from the registry.
func writeCounters(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	lines := make([]string, 0, len(families))
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			counter := metric.GetCounter()
			if counter == nil {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				if pair.GetValue() == "" {
					continue
				}
				labels = append(labels, pair.GetName()+"="+pair.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", family.GetName(), strings.Join(labels, ","), counter.GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) finish(w io.Writer, printMetrics bool, runErr error) error {
	if printMetrics && a != nil && a.registry != nil {
		if err := writeCounters(w, a.registry); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if err := a.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}
