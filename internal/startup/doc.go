// Package startup handles application configuration, build information,
// and startup/shutdown logging for the vault server.
package startup
