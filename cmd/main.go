package main

import (
	"log"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	_ "github.com/klipach/fixturebot"
	"github.com/klipach/fixturebot/config"
)

// Runs the Webhook function locally.
func main() {
	log.Println("Started")

	runner, err := config.LoadRunner()
	if err != nil {
		log.Fatalf("config.LoadRunner: %v\n", err)
	}
	if err := funcframework.Start(runner.Port); err != nil {
		log.Fatalf("funcframework.Start: %v\n", err)
	}

	log.Println("Done")
}
