// Package config handles configuration for the server component: defaults,
// a JSON overlay, environment variables and command-line flags, applied in
// that order.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the auth and search server.
type Config struct {
	AppName          string
	AppEnv           string
	EndpointAddrHTTP string
	EndpointAddrGRPC string

	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	DBHost           string
	DBPort           int

	RedisHost string
	RedisPort int

	ElasticSchema string
	ElasticHost   string
	ElasticPort   int
	FilmIndex     string
	GenreIndex    string
	PersonIndex   string
	CacheTTL      time.Duration

	// SecretKey signs tokens with Algorithm (an HMAC method). Do not use
	// the default outside development.
	SecretKey                    string
	Algorithm                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration

	NATSURL           string
	NATSVerifySubject string

	YandexClientID     string
	YandexClientSecret string
	YandexRedirectURI  string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.AppName = "movies_auth"
	c.AppEnv = "production"
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"

	c.PostgresDB = "postgres"
	c.PostgresUser = "postgres"
	c.PostgresPassword = "postgres"
	c.DBHost = "127.0.0.1"
	c.DBPort = 5432

	c.RedisHost = "redis"
	c.RedisPort = 6379

	c.ElasticSchema = "http://"
	c.ElasticHost = "elasticsearch"
	c.ElasticPort = 9200
	c.FilmIndex = "movies"
	c.GenreIndex = "genres"
	c.PersonIndex = "persons"
	c.CacheTTL = 5 * time.Second

	c.SecretKey = "secretKey"
	c.Algorithm = "HS256"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 14400 * time.Minute

	c.NATSVerifySubject = "auth.verify_token"
}

// DatabaseDSN builds the pgx connection string from the POSTGRES_* settings.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RedisAddr returns host:port of the cache.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// ElasticURL returns the document index base URL.
func (c *Config) ElasticURL() string {
	return fmt.Sprintf("%s%s:%d", c.ElasticSchema, c.ElasticHost, c.ElasticPort)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (and .env) and finally from
// command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	parseFlags(cfg)
	return cfg, nil
}
