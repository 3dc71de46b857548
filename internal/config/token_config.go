package config

import "time"

type TokenConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

var _ TokenConfig = envVars{}

func (e envVars) GetAccessTokenExpiry() time.Duration {
	return time.Duration(e.AccessTokenExpireMinutes) * time.Minute
}

func (e envVars) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(e.RefreshTokenExpireDays) * 24 * time.Hour
}
