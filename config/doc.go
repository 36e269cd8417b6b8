// Package config loads the command-line configuration from, in decreasing
// precedence, flags, HREDES_* environment variables, a hredes.yaml file and
// built-in defaults, and maps it onto the engine options.
package config
