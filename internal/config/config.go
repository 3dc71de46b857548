package config

type Config interface {
	EnvConfig
	CorsConfig
	GoogleConfig
	TokenConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDatabaseURL() string
	GetSecretKey() string
	GetClientURL() string
}

type mainConfig struct {
	envVars
}

// New reads the process environment once and returns an immutable Config.
func New() (Config, error) {
	vars, err := parseEnvVars()
	if err != nil {
		return nil, err
	}
	return mainConfig{envVars: vars}, nil
}
