// Package main runs a headless walkthrough of the storefront client: load
// the menu, sign in, fill the cart, submit an order and replay it from
// history. Renders and notices go to the structured log.
//
// Environment Variables:
//
//	STOREFRONT_API_URL       - remote ordering API base URL (default: http://localhost:3000)
//	REDIS_URL                - optional; switches the local store to Redis
//	OTEL_EXPORTER_OTLP_ENDPOINT - optional; enables OTLP trace export
//	STOREFRONT_LOG_LEVEL     - debug|info|warn|error (default: info)
//
// Example Usage:
//
//	export STOREFRONT_API_URL="http://localhost:3000"
//	go run ./cmd/storefront -menu menu.yaml -email priya@example.com -password secret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fastfoodmaniya/storefront"
	"github.com/fastfoodmaniya/storefront/core"
	"github.com/fastfoodmaniya/storefront/menu"
)

func main() {
	var (
		menuPath = flag.String("menu", "menu.yaml", "path to the YAML menu catalog")
		email    = flag.String("email", "", "account email")
		password = flag.String("password", "", "account password")
		register = flag.Bool("register", false, "register the account before signing in")
		username = flag.String("username", "guest", "display name used with -register")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	if err := run(*menuPath, *email, *password, *username, *register); err != nil {
		log.Fatalf("storefront: %v", err)
	}
}

func run(menuPath, email, password, username string, register bool) error {
	catalog, err := menu.LoadFile(menuPath)
	if err != nil {
		return err
	}

	logger := core.NewProductionLogger(core.LoggingConfig{
		Level:  envOr("STOREFRONT_LOG_LEVEL", "info"),
		Format: "json",
	}, "storefront-demo")

	client, err := storefront.New(core.NewLogRenderSink(logger),
		storefront.WithAPIBaseURL(envOr("STOREFRONT_API_URL", "http://localhost:3000")))
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer client.Close(ctx)

	if register {
		if err := client.Session.Register(ctx, username, email, password); err != nil {
			if !errors.Is(err, core.ErrUserExists) {
				return err
			}
			logger.Info("Account already exists, signing in", map[string]interface{}{
				"operation": "demo",
				"email":     email,
			})
		}
	}

	if err := client.Session.Login(ctx, email, password); err != nil {
		if errors.Is(err, core.ErrCredentialRejected) {
			return fmt.Errorf("login rejected for %s: check the credentials", email)
		}
		return err
	}

	// Fill the cart with the first couple of catalog entries
	items := catalog.Items()
	if len(items) == 0 {
		return fmt.Errorf("menu %s is empty", menuPath)
	}
	if err := client.Cart.Add(items[0].LineItem(), 2); err != nil {
		return err
	}
	if len(items) > 1 {
		if err := client.Cart.Add(items[1].LineItem(), 1); err != nil {
			return err
		}
	}

	order, err := client.Session.SubmitOrder(ctx, "555-0100", "12 Curry Lane")
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, total %d\n", order.ID, order.Total)

	orders, source, err := client.Session.History(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("history has %d order(s) from the %s store\n", len(orders), source)

	// Replay the most recent order into the cart, then walk away from it
	if err := client.Session.RepeatOrder(ctx, len(orders)-1); err != nil {
		return err
	}
	fmt.Printf("cart refilled: %d item(s), total %d\n",
		client.Cart.Snapshot().Count, client.Cart.Snapshot().Total)

	return client.Session.Logout(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
