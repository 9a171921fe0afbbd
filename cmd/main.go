package main

import (
	"os"
)

var version = "dev"

// @title          infoCripto API
// @version        1.0
// @description    Accounts, favorites, market prices, news and newsletter for the infoCripto site.
// @BasePath       /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cmd := NewRootCmd()
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
