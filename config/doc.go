// Package config loads the service configuration from config.yml, .env
// files, and environment variables, in increasing order of precedence.
// The merged result is validated before the service starts.
package config
