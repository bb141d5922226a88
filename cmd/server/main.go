package main

import (
	"github.com/joho/godotenv"

	"wagecalc/internal/app/server"
)

func main() {
	_ = godotenv.Load()
	server.Run()
}
