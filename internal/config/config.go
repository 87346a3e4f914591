// Package config holds the aggregator configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	infraconfig "github.com/Mohammedmarzuk17/EduShield/infrastructure/config"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	infraredis "github.com/Mohammedmarzuk17/EduShield/infrastructure/redis"
	"github.com/Mohammedmarzuk17/EduShield/infrastructure/server"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
	"github.com/Mohammedmarzuk17/EduShield/internal/feed"
	"github.com/Mohammedmarzuk17/EduShield/internal/normalize"
)

const (
	defaultFetchTimeout  = 30 * time.Second
	defaultWorkers       = 4
	defaultOutputDir     = "."
	defaultUploadsDir    = "custom_feeds"
	defaultUploadsSource = "custom"
	defaultRedisAddress  = "localhost:6379"
	defaultMinIOEndpoint = "localhost:9000"
	defaultMinIOBucket   = "blocklists"
	defaultCron          = "0 */6 * * *"
	defaultWatchDebounce = 5 * time.Second
)

// Config is the full aggregator configuration.
type Config struct {
	Debug bool `env:"APP_DEBUG" yaml:"debug"`

	// Catalog lists the source tags every run publishes, in manifest order.
	Catalog []string    `env:"BLOCKLIST_CATALOG" yaml:"catalog"`
	Feeds   []feed.Spec `yaml:"feeds"`

	FetchTimeout time.Duration `env:"BLOCKLIST_FETCH_TIMEOUT" yaml:"fetch_timeout"`
	Workers      int           `env:"BLOCKLIST_WORKERS"       yaml:"workers"`
	MaxBodyBytes int64         `env:"BLOCKLIST_MAX_BODY_BYTES" yaml:"max_body_bytes"`
	UserAgent    string        `env:"BLOCKLIST_USER_AGENT"    yaml:"user_agent"`

	// FreeText is the policy for feeds that do not set their own.
	FreeText    feed.FreeTextPolicy `env:"BLOCKLIST_FREE_TEXT"    yaml:"free_text"`
	GuessSuffix string              `env:"BLOCKLIST_GUESS_SUFFIX" yaml:"guess_suffix"`

	OutputDir string        `env:"BLOCKLIST_OUTPUT_DIR" yaml:"output_dir"`
	Uploads   UploadsConfig `yaml:"uploads"`

	MinIO    MinIOConfig       `yaml:"minio"`
	Redis    infraredis.Config `yaml:"redis"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Schedule ScheduleConfig    `yaml:"schedule"`
	// Status serves /metrics and health endpoints during schedule runs;
	// an empty address disables it.
	Status  server.Config `yaml:"status"`
	Logging logger.Config `yaml:"logging"`
}

// UploadsConfig describes the folder of locally uploaded feeds.
type UploadsConfig struct {
	Dir    string `env:"BLOCKLIST_UPLOADS_DIR"    yaml:"dir"`
	Source string `env:"BLOCKLIST_UPLOADS_SOURCE" yaml:"source"`
	// Disabled skips the folder scan entirely.
	Disabled bool `env:"BLOCKLIST_UPLOADS_DISABLED" yaml:"disabled"`
}

// MinIOConfig configures publishing of the output files to object storage.
type MinIOConfig struct {
	Enabled   bool   `env:"MINIO_ENABLED"    yaml:"enabled"`
	Endpoint  string `env:"MINIO_ENDPOINT"   yaml:"endpoint"`
	AccessKey string `env:"MINIO_ACCESS_KEY" yaml:"access_key"`
	SecretKey string `env:"MINIO_SECRET_KEY" yaml:"secret_key"`
	Bucket    string `env:"MINIO_BUCKET"     yaml:"bucket"`
	Prefix    string `env:"MINIO_PREFIX"     yaml:"prefix"`
	UseSSL    bool   `env:"MINIO_USE_SSL"    yaml:"use_ssl"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// TextfilePath is where run metrics are written for the node exporter
	// textfile collector. Empty disables the export.
	TextfilePath string `env:"BLOCKLIST_METRICS_TEXTFILE" yaml:"textfile_path"`
}

// ScheduleConfig configures the schedule command.
type ScheduleConfig struct {
	Cron string `env:"BLOCKLIST_SCHEDULE" yaml:"cron"`
	// WatchUploads re-runs the pipeline when the uploads folder changes.
	WatchUploads  bool          `env:"BLOCKLIST_WATCH_UPLOADS" yaml:"watch_uploads"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	RunOnStart    bool          `env:"BLOCKLIST_RUN_ON_START" yaml:"run_on_start"`
}

// DefaultFeeds are used when the configuration lists none.
func DefaultFeeds() []feed.Spec {
	return []feed.Spec{
		{Source: "urlhaus", URL: "https://urlhaus.abuse.ch/downloads/csv_recent/", Format: feed.FormatCSV, Severity: domain.SeverityRed},
		{Source: "openphish", URL: "https://raw.githubusercontent.com/openphish/public_feed/refs/heads/main/feed.txt", Format: feed.FormatText, Severity: domain.SeverityRed},
		{
			Source:   "ugc",
			URL:      "https://www.ugc.gov.in/fakeuniversities",
			Format:   feed.FormatHTML,
			HTMLMode: feed.HTMLText,
			FreeText: feed.FreeTextGuess,
			Discover: true,
		},
	}
}

// Load reads, defaults and validates the configuration at path. A missing
// file is allowed; the defaults and environment then apply.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, true, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if len(cfg.Catalog) == 0 {
		for _, tag := range domain.DefaultCatalog {
			cfg.Catalog = append(cfg.Catalog, tag.String())
		}
	}
	if len(cfg.Feeds) == 0 {
		cfg.Feeds = DefaultFeeds()
	}
	for i := range cfg.Feeds {
		cfg.Feeds[i].Source = domain.NewSourceTag(string(cfg.Feeds[i].Source))
		cfg.Feeds[i].Severity = domain.Severity(strings.ToLower(string(cfg.Feeds[i].Severity)))
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.FreeText == "" {
		cfg.FreeText = feed.FreeTextReject
	}
	if cfg.GuessSuffix == "" {
		cfg.GuessSuffix = normalize.DefaultSuffix
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = defaultUploadsDir
	}
	if cfg.Uploads.Source == "" {
		cfg.Uploads.Source = defaultUploadsSource
	}
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = defaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = defaultMinIOBucket
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = defaultCron
	}
	if cfg.Schedule.WatchDebounce == 0 {
		cfg.Schedule.WatchDebounce = defaultWatchDebounce
	}
	if cfg.Debug && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.SetDefaults()
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	errs := []error{
		infraconfig.ValidatePositive("workers", c.Workers),
		infraconfig.ValidateRequired("output_dir", c.OutputDir),
		infraconfig.ValidateOneOf("free_text", string(c.FreeText), string(feed.FreeTextReject), string(feed.FreeTextGuess)),
		infraconfig.ValidateLogLevel(c.Logging.Level),
		infraconfig.ValidateLogFormat(c.Logging.Format),
	}

	if c.FetchTimeout <= 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "fetch_timeout", Message: "must be positive"})
	}
	if len(domain.NewCatalog(c.Catalog)) == 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "catalog", Message: "must list at least one source"})
	}
	for i, tag := range c.Catalog {
		errs = append(errs, validateSourceTag(fmt.Sprintf("catalog[%d]", i), tag))
	}
	errs = append(errs, validateSourceTag("uploads.source", c.Uploads.Source))

	for i, spec := range c.Feeds {
		errs = append(errs, validateFeed(fmt.Sprintf("feeds[%d]", i), spec))
	}

	if c.MinIO.Enabled {
		errs = append(errs,
			infraconfig.ValidateRequired("minio.endpoint", c.MinIO.Endpoint),
			infraconfig.ValidateRequired("minio.bucket", c.MinIO.Bucket),
		)
	}
	if c.Redis.Enabled {
		errs = append(errs, infraconfig.ValidateRequired("redis.address", c.Redis.Address))
	}

	return errors.Join(errs...)
}

func validateFeed(prefix string, spec feed.Spec) error {
	errs := []error{
		infraconfig.ValidateRequired(prefix+".source", string(spec.Source)),
		validateSourceTag(prefix+".source", string(spec.Source)),
		infraconfig.ValidateOneOf(prefix+".format", string(spec.Format),
			string(feed.FormatText), string(feed.FormatCSV), string(feed.FormatJSON), string(feed.FormatHTML),
			string(feed.FormatPDF), string(feed.FormatRSS), string(feed.FormatXLSX)),
		infraconfig.ValidateOneOf(prefix+".html_mode", string(spec.HTMLMode), string(feed.HTMLLinks), string(feed.HTMLText)),
		infraconfig.ValidateOneOf(prefix+".pdf_mode", string(spec.PDFMode), string(feed.PDFTokens), string(feed.PDFLines)),
		infraconfig.ValidateOneOf(prefix+".free_text", string(spec.FreeText), string(feed.FreeTextReject), string(feed.FreeTextGuess)),
	}

	switch {
	case spec.URL != "" && spec.Path != "":
		errs = append(errs, &infraconfig.ValidationError{Field: prefix, Message: "set either url or path, not both"})
	case spec.URL != "":
		errs = append(errs, infraconfig.ValidateHTTPURL(prefix+".url", spec.URL))
	case spec.Path == "":
		errs = append(errs, &infraconfig.ValidationError{Field: prefix, Message: "url or path is required"})
	}

	if spec.Discover && spec.URL == "" {
		errs = append(errs, &infraconfig.ValidationError{Field: prefix + ".discover", Message: "requires a url"})
	}

	return errors.Join(errs...)
}

// validateSourceTag rejects tags that cannot name an artifact file. Blank
// tags are left to ValidateRequired or to defaults.
func validateSourceTag(field, raw string) error {
	tag := domain.NewSourceTag(raw)
	if tag == "" || tag.Valid() {
		return nil
	}
	return &infraconfig.ValidationError{
		Field:   field,
		Message: fmt.Sprintf("source tag %q must match [a-z0-9][a-z0-9._-]*, contain no \"..\" and not be %q", raw, "manifest"),
	}
}

// SourceCatalog returns the canonical catalog.
func (c *Config) SourceCatalog() domain.Catalog {
	return domain.NewCatalog(c.Catalog)
}
