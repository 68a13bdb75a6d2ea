package models

import (
	"time"

	c "ldserver/api/models/constants"
)

type Config struct {
	Debug bool `envconfig:"LDSERVER_DEBUG" yaml:"debug"`
	// cpu | mem | block ; empty disables profiling
	Profile string `envconfig:"LDSERVER_PROFILE" yaml:"profile"`

	Api struct {
		Url  string `envconfig:"LDSERVER_API_URL" yaml:"url"`
		Port string `envconfig:"LDSERVER_API_INTERNAL_PORT" default:"5000" yaml:"port"`
		// public prefix used instead of the request's own base url when building `next`
		ProxyPass string `envconfig:"LDSERVER_PROXY_PASS" yaml:"proxy-pass"`

		MaxPageSize      int `envconfig:"LDSERVER_API_MAX_PAGE_SIZE" default:"100000" yaml:"max-page-size"`
		MaxRegionSize    int `envconfig:"LDSERVER_API_MAX_REGION_SIZE" default:"4000000" yaml:"max-region-size"`
		MaxCovRegionSize int `envconfig:"LDSERVER_API_MAX_COV_REGION_SIZE" default:"1000000" yaml:"max-cov-region-size"`
		// 0 leaves values unrounded
		DefaultPrecision int `envconfig:"LDSERVER_API_DEFAULT_PRECISION" default:"0" yaml:"default-precision"`
	} `yaml:"api"`

	Registry struct {
		Driver    c.RegistryDriver `envconfig:"LDSERVER_REGISTRY_DRIVER" default:"memory" yaml:"driver"`
		Manifest  string           `envconfig:"LDSERVER_REGISTRY_MANIFEST" yaml:"manifest"`
		SqlDriver string           `envconfig:"LDSERVER_REGISTRY_SQL_DRIVER" default:"sqlite" yaml:"sql-driver"`
		Dsn       string           `envconfig:"LDSERVER_REGISTRY_DSN" default:"file:ldserver.db" yaml:"dsn"`
	} `yaml:"registry"`

	Files struct {
		Driver      c.FileDriver `envconfig:"LDSERVER_FILES_DRIVER" default:"fs" yaml:"driver"`
		Root        string       `envconfig:"LDSERVER_FILES_ROOT" default:"." yaml:"root"`
		S3Bucket    string       `envconfig:"LDSERVER_FILES_S3_BUCKET" yaml:"s3-bucket"`
		S3Region    string       `envconfig:"LDSERVER_FILES_S3_REGION" default:"us-east-1" yaml:"s3-region"`
		S3Endpoint  string       `envconfig:"LDSERVER_FILES_S3_ENDPOINT" yaml:"s3-endpoint"`
		S3PathStyle bool         `envconfig:"LDSERVER_FILES_S3_PATH_STYLE" yaml:"s3-path-style"`
		S3AccessKey string       `envconfig:"LDSERVER_FILES_S3_ACCESS_KEY" yaml:"s3-access-key"`
		S3SecretKey string       `envconfig:"LDSERVER_FILES_S3_SECRET_KEY" yaml:"s3-secret-key"`
	} `yaml:"files"`

	Engine struct {
		Driver      c.EngineDriver `envconfig:"LDSERVER_ENGINE_DRIVER" default:"memory" yaml:"driver"`
		Url         string         `envconfig:"LDSERVER_ENGINE_URL" yaml:"url"`
		Timeout     time.Duration  `envconfig:"LDSERVER_ENGINE_TIMEOUT" default:"60s" yaml:"timeout"`
		SegmentSize int            `envconfig:"LDSERVER_SEGMENT_SIZE_BP" default:"1000" yaml:"segment-size"`
		// panel fixture for the in-process engine
		Fixture string `envconfig:"LDSERVER_ENGINE_FIXTURE" yaml:"fixture"`
	} `yaml:"engine"`

	Cache struct {
		Enabled       bool          `envconfig:"LDSERVER_CACHE_ENABLED" yaml:"enabled"`
		RedisAddress  string        `envconfig:"LDSERVER_CACHE_REDIS_ADDRESS" default:"localhost:6379" yaml:"redis-address"`
		RedisPassword string        `envconfig:"LDSERVER_CACHE_REDIS_PASSWORD" yaml:"redis-password"`
		ProbeInterval time.Duration `envconfig:"LDSERVER_CACHE_PROBE_INTERVAL" default:"30s" yaml:"probe-interval"`
	} `yaml:"cache"`

	Elasticsearch struct {
		Url      string `envconfig:"LDSERVER_ES_URL" yaml:"url"`
		Username string `envconfig:"LDSERVER_ES_USERNAME" yaml:"username"`
		Password string `envconfig:"LDSERVER_ES_PASSWORD" yaml:"password"`
	} `yaml:"elasticsearch"`
}
