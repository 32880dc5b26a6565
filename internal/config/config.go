// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Barrister1990/agrilink-sub000/internal/domain/inventory"
	"github.com/Barrister1990/agrilink-sub000/internal/domain/shipping"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendDynamo = "dynamo"

	GatewaySimulator   = "simulator"
	GatewayInteractive = "interactive"
)

type Config struct {
	Service   Service    `yaml:"service"`
	HTTP      HTTP       `yaml:"http"`
	Storage   Storage    `yaml:"storage"`
	MySQL     MySQL      `yaml:"mysql"`
	Dynamo    Dynamo     `yaml:"dynamo"`
	SQS       SQS        `yaml:"sqs"`
	Shipping  Shipping   `yaml:"shipping"`
	Catalog   []Product  `yaml:"catalog"`
	Gateway   Gateway    `yaml:"gateway"`
	Auth      Auth       `yaml:"auth"`
	RateLimit RateLimit  `yaml:"rate_limit"`
	Checkout  Checkout   `yaml:"checkout"`
	Outbox    OutboxOpts `yaml:"outbox"`
}

type Service struct {
	Name  string `yaml:"name"`
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Storage picks a backend per aggregate.
type Storage struct {
	Orders    string `yaml:"orders"`
	Inventory string `yaml:"inventory"`
}

type MySQL struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	InitSchema      bool          `yaml:"init_schema"`
}

type Dynamo struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Table    string `yaml:"table"`
}

type SQS struct {
	Region   string   `yaml:"region"`
	Endpoint string   `yaml:"endpoint"`
	QueueURL string   `yaml:"queue_url"`
	Events   []string `yaml:"events"`
}

type Shipping struct {
	Default string            `yaml:"default"`
	Fees    map[string]string `yaml:"fees"`
}

type Product struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	SupplierID string `yaml:"supplier_id"`
	Price      string `yaml:"price"`
	Stock      int    `yaml:"stock"`
}

type Gateway struct {
	Mode        string        `yaml:"mode"`
	SuccessRate float64       `yaml:"success_rate"`
	CancelRate  float64       `yaml:"cancel_rate"`
	Latency     time.Duration `yaml:"latency"`
	Timeout     time.Duration `yaml:"timeout"`
	RefPrefix   string        `yaml:"reference_prefix"`
	// CallbackSecret signs /payments/callback bodies. Empty means only staff tokens may resolve.
	CallbackSecret string `yaml:"callback_secret"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type RateLimit struct {
	SubmitPerSecond float64 `yaml:"submit_per_second"`
	Burst           int     `yaml:"burst"`
}

type Checkout struct {
	SessionTTL     time.Duration `yaml:"session_ttl"`
	ExpireInterval time.Duration `yaml:"expire_interval"`
}

type OutboxOpts struct {
	QueueSize      int           `yaml:"queue_size"`
	Concurrency    int           `yaml:"concurrency"`
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
}

// Load reads path when it is non-empty, applies environment overrides from getenv
// (os.Getenv when nil), fills defaults and validates.
func Load(path string, getenv func(string) string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes YAML without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"SERVICE_NAME":            &cfg.Service.Name,
		"ENV":                     &cfg.Service.Env,
		"LOG_LEVEL":               &cfg.Service.Level,
		"HTTP_ADDR":               &cfg.HTTP.Addr,
		"STORAGE_ORDERS":          &cfg.Storage.Orders,
		"STORAGE_INVENTORY":       &cfg.Storage.Inventory,
		"MYSQL_DSN":               &cfg.MySQL.DSN,
		"DYNAMODB_TABLE":          &cfg.Dynamo.Table,
		"DYNAMODB_ENDPOINT":       &cfg.Dynamo.Endpoint,
		"SQS_QUEUE_URL":           &cfg.SQS.QueueURL,
		"SQS_ENDPOINT":            &cfg.SQS.Endpoint,
		"GATEWAY_MODE":            &cfg.Gateway.Mode,
		"GATEWAY_CALLBACK_SECRET": &cfg.Gateway.CallbackSecret,
		"JWT_SECRET":              &cfg.Auth.JWTSecret,
	}
	for k, dst := range str {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			*dst = v
		}
	}
	if v := getenv("AWS_REGION"); v != "" {
		cfg.Dynamo.Region = v
		cfg.SQS.Region = v
	}
	if v := getenv("GATEWAY_SUCCESS_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: GATEWAY_SUCCESS_RATE: %w", err)
		}
		cfg.Gateway.SuccessRate = f
	}
	if v := getenv("CHECKOUT_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CHECKOUT_SESSION_TTL: %w", err)
		}
		cfg.Checkout.SessionTTL = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "agrilink"
	}
	if cfg.Service.Env == "" {
		cfg.Service.Env = "dev"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Storage.Orders == "" {
		cfg.Storage.Orders = BackendMemory
	}
	if cfg.Storage.Inventory == "" {
		cfg.Storage.Inventory = cfg.Storage.Orders
	}
	if cfg.Dynamo.Region == "" {
		cfg.Dynamo.Region = "us-west-2"
	}
	if cfg.SQS.Region == "" {
		cfg.SQS.Region = cfg.Dynamo.Region
	}
	if cfg.Gateway.Mode == "" {
		cfg.Gateway.Mode = GatewaySimulator
	}
	if cfg.Gateway.Mode == GatewaySimulator && cfg.Gateway.SuccessRate == 0 && cfg.Gateway.CancelRate == 0 {
		cfg.Gateway.SuccessRate = 1
	}
	if cfg.Gateway.RefPrefix == "" {
		cfg.Gateway.RefPrefix = "PAY-"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.Service.Name
	}
	if cfg.RateLimit.SubmitPerSecond == 0 {
		cfg.RateLimit.SubmitPerSecond = 2
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 4
	}
	if cfg.Checkout.SessionTTL == 0 {
		cfg.Checkout.SessionTTL = 30 * time.Minute
	}
	if cfg.Checkout.ExpireInterval == 0 {
		cfg.Checkout.ExpireInterval = time.Minute
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	for _, b := range []struct{ name, v string }{
		{"storage.orders", c.Storage.Orders},
		{"storage.inventory", c.Storage.Inventory},
	} {
		switch b.v {
		case BackendMemory, BackendMySQL:
		case BackendDynamo:
			if b.name == "storage.orders" {
				errs = append(errs, fmt.Errorf("config: %s does not support %q", b.name, b.v))
			}
		default:
			errs = append(errs, fmt.Errorf("config: %s: unknown backend %q", b.name, b.v))
		}
	}
	if (c.Storage.Orders == BackendMySQL || c.Storage.Inventory == BackendMySQL) && c.MySQL.DSN == "" {
		errs = append(errs, errors.New("config: mysql.dsn is required for the mysql backend"))
	}
	if c.Storage.Inventory == BackendDynamo && c.Dynamo.Table == "" {
		errs = append(errs, errors.New("config: dynamo.table is required for the dynamo backend"))
	}
	switch c.Gateway.Mode {
	case GatewaySimulator, GatewayInteractive:
	default:
		errs = append(errs, fmt.Errorf("config: gateway.mode: unknown mode %q", c.Gateway.Mode))
	}
	if c.Gateway.SuccessRate < 0 || c.Gateway.CancelRate < 0 || c.Gateway.SuccessRate+c.Gateway.CancelRate > 1 {
		errs = append(errs, errors.New("config: gateway rates must be non-negative and sum to at most 1"))
	}
	if _, err := c.ShippingTable(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ShippingTable builds the fee table, falling back to the built-in regions when none are configured.
func (c *Config) ShippingTable() (*shipping.Table, error) {
	if len(c.Shipping.Fees) == 0 && c.Shipping.Default == "" {
		return shipping.DefaultTable(), nil
	}
	def := c.Shipping.Default
	if def == "" {
		def = shipping.DefaultTable().Default().String()
	}
	t, err := shipping.NewTable(c.Shipping.Fees, def)
	if err != nil {
		return nil, fmt.Errorf("config: shipping: %w", err)
	}
	return t, nil
}

// Products converts the catalog seed into inventory records.
func (c *Config) Products() ([]*inventory.Product, error) {
	out := make([]*inventory.Product, 0, len(c.Catalog))
	for _, p := range c.Catalog {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("config: catalog %s price: %w", p.ID, err)
		}
		prod, err := inventory.NewProduct(p.ID, p.Name, p.SupplierID, price, p.Stock)
		if err != nil {
			return nil, fmt.Errorf("config: catalog %s: %w", p.ID, err)
		}
		out = append(out, prod)
	}
	return out, nil
}
