package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvConfig mirrors the environment variables the service understands.
// Pointer fields stay nil when a variable is unset so it does not clobber
// values from earlier layers. Token lifetimes are whole minutes and the
// cache TTL whole seconds.
type EnvConfig struct {
	AppName          *string `env:"PROJECT_NAME"`
	AppEnv           *string `env:"APP_ENV"`
	EndpointAddrHTTP *string `env:"HTTP_ADDR"`
	EndpointAddrGRPC *string `env:"GRPC_ADDR"`

	PostgresDB       *string `env:"POSTGRES_DB"`
	PostgresUser     *string `env:"POSTGRES_USER"`
	PostgresPassword *string `env:"POSTGRES_PASSWORD"`
	DBHost           *string `env:"DB_HOST"`
	DBPort           *int    `env:"DB_PORT"`

	RedisHost *string `env:"REDIS_HOST"`
	RedisPort *int    `env:"REDIS_PORT"`

	ElasticSchema *string `env:"ELASTIC_SCHEMA"`
	ElasticHost   *string `env:"ELASTIC_HOST"`
	ElasticPort   *int    `env:"ELASTIC_PORT"`
	FilmIndex     *string `env:"FILM_INDEX"`
	GenreIndex    *string `env:"GENRE_INDEX"`
	PersonIndex   *string `env:"PERSON_INDEX"`
	CacheSeconds  *int    `env:"CACHE_EXPIRE_IN_SECONDS"`

	SecretKey       *string `env:"SECRET_KEY"`
	Algorithm       *string `env:"ALGORITHM"`
	AccessLifetime  *int    `env:"ACCESS_TOKEN_LIFETIME"`
	RefreshLifetime *int    `env:"REFRESH_TOKEN_LIFETIME"`

	NATSURL           *string `env:"NATS_URL"`
	NATSVerifySubject *string `env:"NATS_SUBJECT_VERIFY_TOKEN"`

	YandexClientID     *string `env:"YANDEX_CLIENT_ID"`
	YandexClientSecret *string `env:"YANDEX_CLIENT_SECRET"`
	YandexRedirectURI  *string `env:"YANDEX_REDIRECT_URI"`
	GoogleClientID     *string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret *string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  *string `env:"GOOGLE_REDIRECT_URI"`
}

// parseEnv loads an optional .env file and overlays every variable that is
// set onto config.
func parseEnv(config *Config) error {
	_ = godotenv.Load()

	e := &EnvConfig{}
	if err := env.Parse(e); err != nil {
		return err
	}

	overlay(&config.AppName, e.AppName)
	overlay(&config.AppEnv, e.AppEnv)
	overlay(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, e.EndpointAddrGRPC)
	overlay(&config.PostgresDB, e.PostgresDB)
	overlay(&config.PostgresUser, e.PostgresUser)
	overlay(&config.PostgresPassword, e.PostgresPassword)
	overlay(&config.DBHost, e.DBHost)
	overlay(&config.DBPort, e.DBPort)
	overlay(&config.RedisHost, e.RedisHost)
	overlay(&config.RedisPort, e.RedisPort)
	overlay(&config.ElasticSchema, e.ElasticSchema)
	overlay(&config.ElasticHost, e.ElasticHost)
	overlay(&config.ElasticPort, e.ElasticPort)
	overlay(&config.FilmIndex, e.FilmIndex)
	overlay(&config.GenreIndex, e.GenreIndex)
	overlay(&config.PersonIndex, e.PersonIndex)
	overlay(&config.SecretKey, e.SecretKey)
	overlay(&config.Algorithm, e.Algorithm)
	overlay(&config.NATSURL, e.NATSURL)
	overlay(&config.NATSVerifySubject, e.NATSVerifySubject)
	overlay(&config.YandexClientID, e.YandexClientID)
	overlay(&config.YandexClientSecret, e.YandexClientSecret)
	overlay(&config.YandexRedirectURI, e.YandexRedirectURI)
	overlay(&config.GoogleClientID, e.GoogleClientID)
	overlay(&config.GoogleClientSecret, e.GoogleClientSecret)
	overlay(&config.GoogleRedirectURI, e.GoogleRedirectURI)

	if e.CacheSeconds != nil {
		config.CacheTTL = time.Duration(*e.CacheSeconds) * time.Second
	}
	if e.AccessLifetime != nil {
		config.AccessTokenValidityDuration = time.Duration(*e.AccessLifetime) * time.Minute
	}
	if e.RefreshLifetime != nil {
		config.RefreshTokenValidityDuration = time.Duration(*e.RefreshLifetime) * time.Minute
	}
	return nil
}

func overlay[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
