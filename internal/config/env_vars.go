package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envVars holds the raw environment configuration for the service.
type envVars struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppName     string `env:"APP_NAME" envDefault:"Go Google Auth"`
	Env         string `env:"ENV" envDefault:"DEV"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"auth.db"`
	SecretKey   string `env:"SECRET_KEY,required"`
	ClientURL   string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI,required"`

	AccessTokenExpireMinutes int `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
}

func parseEnvVars() (envVars, error) {
	var vars envVars
	if err := env.Parse(&vars); err != nil {
		return envVars{}, fmt.Errorf("config.parseEnvVars: %w", err)
	}
	return vars, nil
}

var _ EnvConfig = envVars{}

func (e envVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e envVars) GetAppName() string {
	return e.AppName
}

func (e envVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e envVars) GetDatabaseURL() string {
	return e.DatabaseURL
}

func (e envVars) GetSecretKey() string {
	return e.SecretKey
}

func (e envVars) GetClientURL() string {
	return e.ClientURL
}
