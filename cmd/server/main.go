package main

import (
	"log"

	"passkeeper/internal/app"
)

// @title                       passkeeper API
// @version                     1.0
// @description                 Password manager backend: accounts, e-mailed second factor and a credential vault.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
