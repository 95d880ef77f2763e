package main

import (
	"log"

	"github.com/vecmap/tilecore/internal/app"
	"github.com/vecmap/tilecore/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
