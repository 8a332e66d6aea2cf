package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/avelinek/storegate/internal"
	"github.com/avelinek/storegate/internal/config"
	"github.com/avelinek/storegate/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v1",
		"gateway": map[string]any{
			"addr":       ":8080",
			"baseURL":    "https://shop.example.com",
			"apiBaseURL": "https://api.shop.example.com",
			"upstream":   "http://127.0.0.1:3000",
			"storage":    "memory",
			"providers": map[string]any{
				"google": map[string]any{
					"clientId":     map[string]string{"$env": "GOOGLE_CLIENT_ID"},
					"clientSecret": map[string]string{"$env": "GOOGLE_CLIENT_SECRET"},
				},
				"facebook": map[string]any{
					"clientId":     map[string]string{"$env": "FACEBOOK_APP_ID"},
					"clientSecret": map[string]string{"$env": "FACEBOOK_CLIENT_SECRET"},
				},
			},
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Println("Config OK")
		return
	}

	log.LogInfoWithFields("main", "Starting storegate", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	gateway, err := internal.NewStoregate(ctx, cfg)
	if err != nil {
		log.LogError("Failed to build gateway: %v", err)
		os.Exit(1)
	}

	if err := gateway.Run(ctx); err != nil {
		log.LogError("Gateway exited with error: %v", err)
		os.Exit(1)
	}
}
