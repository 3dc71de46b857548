package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

var _ CorsConfig = envVars{}

// GetAllowedOrigins allows the configured SPA origin(s). CLIENT_URL may
// hold a comma-separated list.
func (e envVars) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range strings.Split(e.ClientURL, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		origins[origin] = struct{}{}
	}
	return origins
}

func (envVars) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (envVars) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
