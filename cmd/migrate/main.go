package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/database"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s up|down|version\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	driver, url := cfg.Database.Driver, cfg.Database.MigrationURL()

	switch flag.Arg(0) {
	case "up":
		if err := database.RunMigrations(driver, url); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := database.RunMigrationsDown(driver, url); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("migrations rolled back")
	case "version":
		version, dirty, err := database.Version(driver, url)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("version %d (dirty=%t)", version, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
