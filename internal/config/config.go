package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Gateway  GatewayConfig  `json:"gateway"`
	Catalog  CatalogConfig  `json:"catalog"`
	Cart     CartConfig     `json:"cart"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
}

type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	PublicBaseURL string `json:"public_base_url"`
	LogLevel      string `json:"log_level"`
}

type GatewayConfig struct {
	FormURL           string   `json:"form_url"`
	VerifyURL         string   `json:"verify_url"`
	MerchantCode      string   `json:"merchant_code"`
	Secret            string   `json:"secret"`
	DeliveryCharge    string   `json:"delivery_charge"`
	TaxAmount         string   `json:"tax_amount"`
	ServiceCharge     string   `json:"service_charge"`
	TransactionPrefix string   `json:"transaction_prefix"`
	VerifyTimeout     Duration `json:"verify_timeout"`
	SuccessPath       string   `json:"success_path"`
	FailurePath       string   `json:"failure_path"`
}

type CatalogConfig struct {
	Path string `json:"path"`
}

type CartConfig struct {
	CookieName  string   `json:"cookie_name"`
	MaxAge      Duration `json:"max_age"`
	MaxQuantity int      `json:"max_quantity"`
}

type DatabaseConfig struct {
	Enabled        bool     `json:"enabled"`
	Driver         string   `json:"driver"`
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	User           string   `json:"user"`
	Password       string   `json:"password"`
	DBName         string   `json:"dbname"`
	SSLMode        string   `json:"sslmode"`
	MigrationsPath string   `json:"migrations_path"`
	Retention      Duration `json:"retention"`
}

type RedisConfig struct {
	Enabled   bool     `json:"enabled"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Password  string   `json:"password"`
	DB        int      `json:"db"`
	LedgerTTL Duration `json:"ledger_ttl"`
}

// Duration decodes from a Go duration string ("10s") or a number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns a configuration wired to the eSewa UAT environment.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	g := &c.Gateway
	if g.FormURL == "" {
		g.FormURL = "https://rc-epay.esewa.com.np/api/epay/main/v2/form"
	}
	if g.VerifyURL == "" {
		g.VerifyURL = "https://uat.esewa.com.np/epay/transrec"
	}
	if g.MerchantCode == "" {
		g.MerchantCode = "EPAYTEST"
	}
	if g.DeliveryCharge == "" {
		g.DeliveryCharge = "100"
	}
	if g.TaxAmount == "" {
		g.TaxAmount = "0"
	}
	if g.ServiceCharge == "" {
		g.ServiceCharge = "0"
	}
	if g.TransactionPrefix == "" {
		g.TransactionPrefix = "accessorize-me"
	}
	if g.VerifyTimeout.Duration == 0 {
		g.VerifyTimeout.Duration = 10 * time.Second
	}
	if g.SuccessPath == "" {
		g.SuccessPath = "/payment/success"
	}
	if g.FailurePath == "" {
		g.FailurePath = "/payment/failure"
	}

	if c.Cart.CookieName == "" {
		c.Cart.CookieName = "cart"
	}
	if c.Cart.MaxAge.Duration == 0 {
		c.Cart.MaxAge.Duration = 30 * 24 * time.Hour
	}
	if c.Cart.MaxQuantity == 0 {
		c.Cart.MaxQuantity = 99
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Database.Retention.Duration == 0 {
		c.Database.Retention.Duration = 90 * 24 * time.Hour
	}

	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.LedgerTTL.Duration == 0 {
		c.Redis.LedgerTTL.Duration = time.Hour
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOREFRONT_GATEWAY_SECRET"); v != "" {
		c.Gateway.Secret = v
	}
	if v := os.Getenv("STOREFRONT_DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) Validate() error {
	var problems []string
	if c.Gateway.Secret == "" {
		problems = append(problems, "gateway.secret is required")
	}
	if c.Gateway.MerchantCode == "" {
		problems = append(problems, "gateway.merchant_code is required")
	}
	if !strings.HasPrefix(c.Server.PublicBaseURL, "http://") && !strings.HasPrefix(c.Server.PublicBaseURL, "https://") {
		problems = append(problems, "server.public_base_url must be an absolute http(s) URL")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		problems = append(problems, "database.driver must be postgres or pgx")
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// SuccessURL and FailureURL are handed to the gateway; it redirects the shopper back to them.
func (c *Config) SuccessURL() string {
	return strings.TrimRight(c.Server.PublicBaseURL, "/") + c.Gateway.SuccessPath
}

func (c *Config) FailureURL() string {
	return strings.TrimRight(c.Server.PublicBaseURL, "/") + c.Gateway.FailurePath
}

func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
