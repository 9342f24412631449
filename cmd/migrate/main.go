package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/providers"
	"github.com/afltools/supercoach-optimizer/pkg/config"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.Player{},
		&models.Squad{},
		&models.SquadPlayer{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_players_position ON players(position)",
		"CREATE INDEX IF NOT EXISTS idx_players_club ON players(club)",
		"CREATE INDEX IF NOT EXISTS idx_players_price ON players(price)",
		"CREATE INDEX IF NOT EXISTS idx_players_predicted_score ON players(predicted_score)",
		"CREATE INDEX IF NOT EXISTS idx_squads_season_strategy ON squads(season, strategy)",
		"CREATE INDEX IF NOT EXISTS idx_squad_players_squad ON squad_players(squad_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"squad_players",
		"squads",
		"players",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

// seedData fills the players table from the synthetic provider so the API
// and CLI work without a live data source.
func seedData(db *database.DB, cfg *config.Config) error {
	provider := providers.NewSampleProvider(cfg.SyntheticPoolSize, logrus.StandardLogger())

	records, err := provider.GetPlayers(cfg.Season)
	if err != nil {
		return fmt.Errorf("failed to generate pool: %w", err)
	}

	seeded := 0
	for _, rec := range records {
		player, err := models.PlayerFromRecord(rec)
		if err != nil {
			logrus.Warnf("Skipping malformed record %s: %v", rec.ExternalID, err)
			continue
		}
		if err := db.Create(player).Error; err != nil {
			return fmt.Errorf("failed to create player %s: %w", player.Name, err)
		}
		seeded++
	}

	logrus.Infof("Seeded %d players for season %d", seeded, cfg.Season)
	return nil
}
