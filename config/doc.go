// Package config loads tedrag settings from YAML and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, a .env file,
// then process environment variables. A .env file never overrides a
// variable that is already set.
package config
