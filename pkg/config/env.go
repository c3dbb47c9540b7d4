package config

import "strings"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether environment enforces production requirements.
func IsProductionLike(environment string) bool {
	env := strings.ToLower(environment)
	return env == EnvStaging || env == EnvProduction
}
