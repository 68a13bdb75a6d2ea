package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ldserver/api/models"
	"ldserver/api/models/constants/drivers"
	esRepo "ldserver/api/repositories/elasticsearch"
	memRepo "ldserver/api/repositories/memory"
	sqlRepo "ldserver/api/repositories/sql"
	"ldserver/api/router"
	"ldserver/api/services/cache"
	"ldserver/api/services/engine"
	memEngine "ldserver/api/services/engine/memory"
	"ldserver/api/services/engine/remote"
	"ldserver/api/services/files"
	"ldserver/api/services/query"
	"ldserver/api/services/registry"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/gommon/log"
	"github.com/pkg/profile"
)

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Using : \n"+

		"\tDebug : %t \n\n"+

		"\tRegistry Driver : %s \n"+
		"\tRegistry Manifest : %s \n"+
		"\tFiles Driver : %s \n"+
		"\tFiles Root : %s \n"+
		"\tEngine Driver : %s \n"+
		"\tEngine Timeout : %s \n"+
		"\tSegment Size : %d\n\n"+

		"\tMax Page Size : %d\n"+
		"\tMax Region Size : %d\n"+
		"\tMax Covariance Region Size : %d\n"+
		"\tProxy Pass : %s\n\n"+

		"\tCache Enabled : %t\n"+
		"\tCache Address : %s\n\n"+

		"Running on Port : %s\n",

		cfg.Debug,
		cfg.Registry.Driver, cfg.Registry.Manifest,
		cfg.Files.Driver, cfg.Files.Root,
		cfg.Engine.Driver, cfg.Engine.Timeout, cfg.Engine.SegmentSize,
		cfg.Api.MaxPageSize, cfg.Api.MaxRegionSize, cfg.Api.MaxCovRegionSize, cfg.Api.ProxyPass,
		cfg.Cache.Enabled, cfg.Cache.RedisAddress,
		cfg.Api.Port)
	// --

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "block":
		defer profile.Start(profile.BlockProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	ctx := context.Background()

	// Service Connections:
	// -- Files
	resolver, err := files.New(ctx, &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	// -- Registry
	source, err := openSource(ctx, &cfg, resolver)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	reg := registry.New(source, resolver)

	// -- Engine
	eng, err := openEngine(ctx, &cfg, resolver)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	// Service Singletons
	cs := cache.NewCacheService(&cfg)
	defer cs.Stop()
	orchestrator := query.New(reg, eng, cs, &cfg)

	// Instantiate Server
	e := router.New(router.Services{
		Config:       &cfg,
		Registry:     reg,
		Orchestrator: orchestrator,
		CacheService: cs,
	})
	if cfg.Debug {
		e.Logger.SetLevel(log.DEBUG)
	}

	// Run
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}

func openSource(ctx context.Context, cfg *models.Config, resolver files.Resolver) (registry.Source, error) {
	var manifest *memRepo.Manifest
	if cfg.Registry.Manifest != "" {
		m, err := memRepo.LoadManifest(ctx, resolver, cfg.Registry.Manifest)
		if err != nil {
			return nil, fmt.Errorf("loading manifest: %w", err)
		}
		manifest = m
	}

	switch cfg.Registry.Driver {
	case drivers.RegistryMemory, "":
		if manifest == nil {
			return nil, fmt.Errorf("the memory registry needs LDSERVER_REGISTRY_MANIFEST")
		}
		return memRepo.New(*manifest)

	case drivers.RegistrySql:
		store, err := sqlRepo.Open(ctx, cfg.Registry.SqlDriver, cfg.Registry.Dsn)
		if err != nil {
			return nil, err
		}
		if manifest != nil {
			if err := store.Import(ctx, *manifest); err != nil {
				return nil, fmt.Errorf("importing manifest: %w", err)
			}
		}
		return store, nil

	case drivers.RegistryElasticsearch:
		es, err := esRepo.Connect(cfg.Elasticsearch.Url, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
		if err != nil {
			return nil, err
		}
		if err := esRepo.WaitForCluster(ctx, es, time.Minute); err != nil {
			return nil, err
		}
		source := esRepo.New(es, cfg.Debug)
		if err := source.EnsureIndices(ctx); err != nil {
			return nil, err
		}
		if manifest != nil {
			if err := source.Import(ctx, *manifest); err != nil {
				return nil, fmt.Errorf("importing manifest: %w", err)
			}
		}
		return source, nil
	}
	return nil, fmt.Errorf("unknown registry driver %q", cfg.Registry.Driver)
}

func openEngine(ctx context.Context, cfg *models.Config, resolver files.Resolver) (engine.Engine, error) {
	switch cfg.Engine.Driver {
	case drivers.EngineMemory, "":
		if cfg.Engine.Fixture == "" {
			return nil, fmt.Errorf("the memory engine needs LDSERVER_ENGINE_FIXTURE")
		}
		return memEngine.Load(ctx, resolver, cfg.Engine.Fixture, cfg.Engine.SegmentSize)
	case drivers.EngineRemote:
		return remote.NewClient(cfg.Engine.Url), nil
	}
	return nil, fmt.Errorf("unknown engine driver %q", cfg.Engine.Driver)
}
