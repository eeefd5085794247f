package main

import (
	"context"
	"os"

	"github.com/fudbi/fudbi/internal/ctl"
	"github.com/fudbi/fudbi/internal/server/config"
)

func main() {
	cfg := config.LoadEnvConfig()
	os.Exit(ctl.Execute(context.Background(), cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
