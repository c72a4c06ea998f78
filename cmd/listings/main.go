// Command listings runs the marketplace listings rotation service.
//
//	@title						Listings Rotation API
//	@version					1.0
//	@description				Landing page rotation of marketplace listings: featured, hot and regular tiers refreshed on a fixed period.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						X-Admin-Token
package main

import "github.com/tbourn/go-listings-backend/internal/cli"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.Execute()
}
