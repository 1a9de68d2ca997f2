package main

import (
	"github.com/joho/godotenv"

	"doubtsolver/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
