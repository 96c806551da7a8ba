package main

import (
	"inboxbrief/cmd/handlers"
	"inboxbrief/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
