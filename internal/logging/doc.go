// Package logging provides leveled logging for the vault service,
// controlled by the DEBUG and LOG_LEVEL environment variables.
package logging
