package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/moviesauth/internal/flagx"
	"github.com/dmitrijs2005/moviesauth/internal/timex"
)

// JsonConfig is the DTO read from the optional JSON config file. Durations
// accept "15m"-style strings or integer nanoseconds.
type JsonConfig struct {
	AppEnv                       string         `json:"app_env"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	PostgresDB                   string         `json:"postgres_db"`
	PostgresUser                 string         `json:"postgres_user"`
	PostgresPassword             string         `json:"postgres_password"`
	DBHost                       string         `json:"db_host"`
	DBPort                       int            `json:"db_port"`
	RedisHost                    string         `json:"redis_host"`
	RedisPort                    int            `json:"redis_port"`
	ElasticHost                  string         `json:"elastic_host"`
	ElasticPort                  int            `json:"elastic_port"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	NATSURL                      string         `json:"nats_url"`
}

// parseJson overlays values from the file named by -c/-config. Only fields
// present (non-zero) in the file replace the current values. A file that
// cannot be read or decoded panics, aborting startup.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.AppEnv, c.AppEnv)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.PostgresDB, c.PostgresDB)
	setString(&config.PostgresUser, c.PostgresUser)
	setString(&config.PostgresPassword, c.PostgresPassword)
	setString(&config.DBHost, c.DBHost)
	setInt(&config.DBPort, c.DBPort)
	setString(&config.RedisHost, c.RedisHost)
	setInt(&config.RedisPort, c.RedisPort)
	setString(&config.ElasticHost, c.ElasticHost)
	setInt(&config.ElasticPort, c.ElasticPort)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.NATSURL, c.NATSURL)

	if c.CacheTTL.Duration > 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
