package config

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
}

var _ GoogleConfig = envVars{}

func (e envVars) GetGoogleClientID() string {
	return e.GoogleClientID
}

func (e envVars) GetGoogleClientSecret() string {
	return e.GoogleClientSecret
}

func (e envVars) GetGoogleRedirectURI() string {
	return e.GoogleRedirectURI
}
