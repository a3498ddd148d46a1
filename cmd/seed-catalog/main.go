package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/degree-audit/internal/catalog"
	"github.com/stemsi/degree-audit/internal/config"
	"github.com/stemsi/degree-audit/internal/database"
	"github.com/stemsi/degree-audit/internal/logger"
	"github.com/stemsi/degree-audit/internal/repository"
)

func main() {
	file := flag.String("file", "", "catalog HTML export to import")
	only := flag.String("table", "", "import only this table id")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-catalog -file catalog.html [-table id]")
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog export")
	}
	defer f.Close()

	tables, err := catalog.ParseHTML(f, *only)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse catalog export")
	}
	if len(tables) == 0 {
		log.Fatal().Str("file", *file).Str("table", *only).Msg("No catalog tables found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewCatalogRepository(pool)

	fmt.Printf("=== Seeding %d catalog tables from %s ===\n", len(tables), *file)

	successCount := 0
	for _, t := range tables {
		if err := repo.UpsertTable(ctx, t.TableID, t.Description); err != nil {
			fmt.Printf("Error registering table %s: %v\n", t.TableID, err)
			continue
		}

		var n int
		if t.Kind == catalog.KindPrerequisites {
			n, err = repo.UpsertPrerequisites(ctx, t.TableID, t.Prerequisites)
		} else {
			n, err = repo.UpsertCourses(ctx, t.TableID, t.Courses)
		}
		if err != nil {
			fmt.Printf("Error writing table %s: %v\n", t.TableID, err)
			continue
		}

		successCount++
		fmt.Printf("%-40s %-14s %d rows\n", t.TableID, t.Kind, n)
	}

	fmt.Printf("\nSeed completed! Imported %d/%d tables.\n", successCount, len(tables))
	fmt.Println("Run POST /api/v1/catalog/refresh-cache to drop stale cached tables.")
}
