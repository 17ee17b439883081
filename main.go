package main

import (
	"shiftboard-api/core/logger"
	"shiftboard-api/core/server"

	_ "shiftboard-api/docs" // Swagger docs
)

// @title Shiftboard API
// @version 1.0
// @description API backend for Shiftboard - bookable helper shifts with conflict detection
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@shiftboard.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
