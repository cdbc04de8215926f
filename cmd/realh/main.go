package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/config"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/server"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/util"
)

var (
	port    = flag.Int("port", 0, "HTTP port (overrides config.toml)")
	devMode = flag.Bool("dev", false, "development mode")
	cutDay  = flag.Int("cut-day", 0, "commercial-month cut day (overrides config.toml)")
)

func main() {
	flag.Parse()

	// optional .env for local runs
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *cutDay != 0 {
		cfg.Calendar.CutDay = *cutDay
		if err := config.Validate(cfg); err != nil {
			log.Fatalf("%v", err)
		}
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("start server: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	log.Printf("realh listening on %s (cut day %d)", addr, cfg.Calendar.CutDay)

	if !cfg.Server.DevMode {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := util.OpenBrowserWithFallback(url); err != nil {
				log.Printf("open browser: %v", err)
			}
		}()
	}

	if err := srv.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
