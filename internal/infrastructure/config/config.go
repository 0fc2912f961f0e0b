// Package config loads the indexer and price API settings from config.toml
// and CSI_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const envPrefix = "CSI"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Stores    []StoreConfig   `mapstructure:"stores" validate:"required,min=1,unique=ID,dive"`
	Indexing  IndexingConfig  `mapstructure:"indexing"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// LogConfig selects level, encoding and destination of both binaries' logs.
// Output defaults to stderr so the indexer can stream records to stdout.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

// DatabaseConfig points at the catalog index tables. For sqlite DBName is
// the database file.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname" validate:"required"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig backs the currency rate cache. Without Required an
// unreachable Redis degrades to an in-process cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Required bool   `mapstructure:"required"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// TelemetryConfig controls OTLP export of traces and metrics
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // host:port of the OTLP gRPC receiver
	SamplingRatio     float64       `mapstructure:"sampling_ratio" validate:"gte=0,lte=1"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	ExportInterval    time.Duration `mapstructure:"export_interval"`
}

// PricingConfig holds catalog price display settings. Tax rates are read
// separately because they are decimals keyed by tax class.
type PricingConfig struct {
	CustomerGroupsEnabled   bool                      `mapstructure:"customer_groups_enabled"`
	TaxDisplay              string                    `mapstructure:"tax_display" validate:"oneof=excluding including both"`
	CatalogPricesIncludeTax bool                      `mapstructure:"catalog_prices_include_tax"`
	Strategies              []string                  `mapstructure:"strategies"` // final price strategies, all registered when empty
	DefaultTaxRate          decimal.Decimal           `mapstructure:"-"`
	TaxRates                map[int64]decimal.Decimal `mapstructure:"-"` // by product tax class
}

// StoreConfig describes one store view
type StoreConfig struct {
	ID           int64    `mapstructure:"id" validate:"gte=0"`
	WebsiteID    int64    `mapstructure:"website_id" validate:"gte=0"`
	Code         string   `mapstructure:"code" validate:"required"`
	BaseCurrency string   `mapstructure:"base_currency" validate:"required,iso4217"`
	Currencies   []string `mapstructure:"currencies" validate:"required,min=1,dive,iso4217"`
	Locale       string   `mapstructure:"locale" validate:"required"`
	TaxDisplay   string   `mapstructure:"tax_display" validate:"omitempty,oneof=excluding including both"` // overrides pricing.tax_display
}

type IndexingConfig struct {
	Workers   int           `mapstructure:"workers" validate:"gte=1,lte=256"`
	BatchSize int           `mapstructure:"batch_size" validate:"gte=1"`
	FailFast  bool          `mapstructure:"fail_fast"`
	RateTTL   time.Duration `mapstructure:"rate_ttl" validate:"gte=0"`
	Output    string        `mapstructure:"output"` // JSON lines destination, "-" for stdout
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"app.name": "catalog-indexer",
		"app.env":  "development",
		"app.port": "8080",

		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "magento",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,

		"redis.enabled":  false,
		"redis.required": false,
		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"log.level":  "info",
		"log.format": "json",
		"log.output": "stderr",

		"http.read_timeout":  15 * time.Second,
		"http.write_timeout": 15 * time.Second,
		"http.idle_timeout":  60 * time.Second,

		"telemetry.enabled":            false,
		"telemetry.collector_endpoint": "localhost:4317",
		"telemetry.sampling_ratio":     1.0,
		"telemetry.service_name":       "",
		"telemetry.insecure":           false,
		"telemetry.export_interval":    time.Minute,

		"pricing.customer_groups_enabled":    false,
		"pricing.tax_display":                "excluding",
		"pricing.catalog_prices_include_tax": false,
		"pricing.strategies":                 []string{},

		"indexing.workers":    4,
		"indexing.batch_size": 500,
		"indexing.fail_fast":  false,
		"indexing.rate_ttl":   10 * time.Minute,
		"indexing.output":     "-",
	} {
		v.SetDefault(key, value)
	}
}

// Load reads config.toml from the working directory or /etc/catalog-indexer
// when present. CSI_ variables (CSI_DATABASE_PASSWORD) override the file,
// which overrides built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/catalog-indexer")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return load(v)
}

// LoadFile is Load with an explicit file, which must exist
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := loadTaxRates(v, &cfg.Pricing); err != nil {
		return nil, err
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if len(cfg.Stores) == 0 {
		cfg.Stores = []StoreConfig{defaultStore()}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultStore() StoreConfig {
	return StoreConfig{
		ID:           1,
		WebsiteID:    1,
		Code:         "default",
		BaseCurrency: "USD",
		Currencies:   []string{"USD"},
		Locale:       "en_US",
	}
}

func loadTaxRates(v *viper.Viper, p *PricingConfig) error {
	p.DefaultTaxRate = decimal.Zero
	if s := v.GetString("pricing.default_tax_rate"); s != "" {
		rate, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("pricing.default_tax_rate: %w", err)
		}
		p.DefaultTaxRate = rate
	}

	p.TaxRates = make(map[int64]decimal.Decimal)
	for class, raw := range v.GetStringMapString("pricing.tax_rates") {
		id, err := strconv.ParseInt(class, 10, 64)
		if err != nil {
			return fmt.Errorf("pricing.tax_rates: tax class %q is not numeric", class)
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("pricing.tax_rates[%s]: %w", class, err)
		}
		p.TaxRates[id] = rate
	}
	return nil
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Pricing.DefaultTaxRate.IsNegative() {
		return errors.New("pricing.default_tax_rate cannot be negative")
	}
	for class, rate := range c.Pricing.TaxRates {
		if rate.IsNegative() {
			return fmt.Errorf("pricing.tax_rates[%d] cannot be negative", class)
		}
	}
	for _, s := range c.Stores {
		if !containsFold(s.Currencies, s.BaseCurrency) {
			return fmt.Errorf("stores[%s]: base currency %s must be enabled", s.Code, s.BaseCurrency)
		}
	}

	if c.App.Env != "production" {
		return nil
	}
	switch {
	case c.Database.Driver != "postgres":
		return errors.New("production requires database.driver = postgres")
	case c.Database.Password == "":
		return errors.New("production requires database.password")
	case c.Database.SSLMode == "disable":
		return errors.New("production requires database.sslmode other than disable")
	}
	return nil
}

// Store returns the store configuration by id
func (c *Config) Store(id int64) (StoreConfig, bool) {
	for _, s := range c.Stores {
		if s.ID == id {
			return s, true
		}
	}
	return StoreConfig{}, false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// DSN builds the postgres URL, escaping credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
