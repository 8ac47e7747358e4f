package main

import (
	"github.com/joho/godotenv"

	"argos/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load()
	cli.SetVersionInfo(version, commit)
	cli.Execute()
}
