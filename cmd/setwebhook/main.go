package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/klipach/fixturebot/config"
	"github.com/klipach/fixturebot/telegram"
)

// TELEGRAM_BOT_TOKEN=*** BACKEND_BASE_URL=*** go run ./cmd/setwebhook -url https://REGION-PROJECT.cloudfunctions.net/Webhook
func main() {
	urlPtr := flag.String("url", "", "public HTTPS URL of the Webhook function")
	deletePtr := flag.Bool("delete", false, "remove the webhook and go back to long polling")
	dropPtr := flag.Bool("drop-pending", false, "drop updates queued while no webhook was set")
	flag.Parse()

	if *urlPtr == "" && !*deletePtr {
		log.Fatalf("Please provide the webhook URL using the -url flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	client, err := telegram.New(cfg.TelegramToken, telegram.WithEndpoint(cfg.TelegramEndpoint))
	if err != nil {
		log.Fatalf("error connecting to telegram: %v", err)
	}

	if *deletePtr {
		if err := client.DeleteWebhook(*dropPtr); err != nil {
			log.Fatalf("error deleting webhook: %v", err)
		}
		fmt.Println("webhook deleted for", client.Username())
		return
	}

	if err := client.SetWebhook(*urlPtr, cfg.WebhookSecret, *dropPtr); err != nil {
		log.Fatalf("error setting webhook: %v", err)
	}
	fmt.Println("webhook set for", client.Username())
}
