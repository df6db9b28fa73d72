package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/hynexus/hynexus-api/internal/config"
	"github.com/hynexus/hynexus-api/internal/database"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	direction := flag.String("direction", "up", "up, down or status")
	steps := flag.Int("steps", 1, "number of migrations to revert when direction is down")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("Missing environment variable: DATABASE_URL")
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}

	switch *direction {
	case "up":
		err = database.MigrateUp(db)
	case "down":
		if *steps < 1 {
			log.Fatal("-steps must be at least 1")
		}
		err = database.MigrateDown(db, *steps)
	case "status":
		err = printStatus(db)
	default:
		log.Fatalf("Unknown direction %q", *direction)
	}
	if err != nil {
		logger.Log.Fatal("Migration command failed", zap.String("direction", *direction), zap.Error(err))
	}
}

func printStatus(db *gorm.DB) error {
	statuses, err := database.Status(db)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
	for _, st := range statuses {
		applied := "pending"
		if st.AppliedAt != nil {
			applied = st.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", st.Version, st.Name, applied)
	}
	return w.Flush()
}
