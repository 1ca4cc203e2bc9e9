package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/eduassist/internal/app"
	"github.com/dmitrijs2005/eduassist/internal/buildinfo"
	"github.com/dmitrijs2005/eduassist/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	a, err := app.NewApp(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	a.Run(ctx)

}
