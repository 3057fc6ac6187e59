package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/database"
	"github.com/openroad/driveadmin/internal/demo"
)

// SeedDemoCommand populates a database with sample driving-school data.
type SeedDemoCommand struct {
	DatabasePath string
	Fresh        bool
}

func NewSeedDemoCommand() *SeedDemoCommand {
	return &SeedDemoCommand{}
}

func (cmd *SeedDemoCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file to seed")
	fs.BoolVar(&cmd.Fresh, "fresh", false, "Delete the database file first and seed from scratch")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-demo [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate a database with demo accounts, profiles and bookings.\n")
		fmt.Fprintf(os.Stderr, "A database that already contains accounts is left untouched.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed-demo\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed-demo -db ./demo.db -fresh\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *SeedDemoCommand) Run() error {
	if cmd.Fresh {
		if err := os.Remove(cmd.DatabasePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove existing database: %w", err)
		}
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := demo.Seed(db.DB); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	fmt.Printf("Seeded demo data into %s\n", cmd.DatabasePath)
	fmt.Printf("Demo accounts use the password %q\n", demo.DemoPassword)
	return nil
}
