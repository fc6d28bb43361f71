// Package api holds the service layer and transport views shared by the
// HTTP server and the CLI.
package api
