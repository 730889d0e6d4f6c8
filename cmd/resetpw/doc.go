// Command resetpw provides a CLI utility for account password management
// in the photo vault application.
//
// It supports the following operations:
//   - reset: Reset the password for a named account
//   - status: Show how many accounts are registered
//
// Usage:
//
//	resetpw <command>
//
// Commands:
//
//	reset <username>  Reset the password for the named account.
//	                  All of the account's sessions are invalidated.
//
//	status            Display how many accounts are registered. Account
//	                  creation happens through the web API.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
package main
