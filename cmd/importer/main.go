package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/example/artshop/pkg/config"
	"github.com/example/artshop/pkg/importer"
	"github.com/example/artshop/pkg/money"
	"github.com/example/artshop/pkg/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	source := flag.String("source", "", "folder holding the images to import")
	category := flag.String("category", "", "category name (defaults to importer.category)")
	price := flag.String("price", "", "price for every imported print (defaults to importer.default_price)")
	dryRun := flag.Bool("dry-run", false, "list what would be imported without changing anything")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -source <folder> [-category name] [-price 50.00] [-dry-run]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	opts := importer.Options{
		Source:      *source,
		MediaRoot:   cfg.Server.MediaRoot,
		Category:    cfg.Importer.Category,
		StripPrefix: cfg.Importer.StripPrefix,
		DryRun:      *dryRun,
	}
	if *category != "" {
		opts.Category = *category
	}
	rawPrice := cfg.Importer.DefaultPrice
	if *price != "" {
		rawPrice = *price
	}
	if opts.Price, err = money.Parse(rawPrice); err != nil {
		logger.Fatal("Invalid price", zap.String("price", rawPrice), zap.Error(err))
	}

	db, err := repository.NewDatabase(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	report, err := importer.New(repository.NewCatalogRepository(db), logger).Run(context.Background(), opts)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	if opts.DryRun {
		for _, p := range report.Planned {
			fmt.Printf("%s -> %q (%s)\n", p.File, p.Title, p.Slug)
		}
		fmt.Printf("Dry run: %d would be imported, %d skipped\n", len(report.Planned), report.Skipped)
		return
	}
	fmt.Printf("Imported %d prints, skipped %d\n", report.Imported, report.Skipped)
}
