// Command seed loads a JSON array of books into one reader's library.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/db"
)

var (
	flagFile        string
	flagOwner       string
	flagWipe        bool
	flagDatabaseURL string
	flagMigrate     bool
	flagNoColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load books from a JSON file into a reader's library",
	Long: `seed reads a JSON array of books and inserts them for the given owner.

Missing fields get the same defaults as POST /v1/books. Use --wipe to remove
the owner's existing books first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSeed,
}

func init() {
	rootCmd.Flags().StringVarP(&flagFile, "file", "f", "books.json", "Seed file (JSON array of books)")
	rootCmd.Flags().StringVar(&flagOwner, "owner", "", "User id that owns the seeded books")
	rootCmd.Flags().BoolVar(&flagWipe, "wipe", false, "Delete the owner's books before loading")
	rootCmd.Flags().StringVar(&flagDatabaseURL, "database-url", "", "Postgres URL (default: $DATABASE_URL)")
	rootCmd.Flags().BoolVar(&flagMigrate, "migrate", true, "Apply the schema before loading")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	_ = rootCmd.MarkFlagRequired("owner")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if flagNoColor {
		color.NoColor = true
	}

	databaseURL := flagDatabaseURL
	if databaseURL == "" {
		databaseURL = internal.Env("DATABASE_URL", "")
	}
	if databaseURL == "" {
		return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
	}

	f, err := os.Open(flagFile)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	list, err := books.DecodeSeed(f, flagOwner, time.Now(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	d, err := db.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer d.Close()

	if flagMigrate {
		if err := d.Migrate(ctx); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	repo := books.NewRepository(db.NewBase(d.Pool, 30*time.Second))

	if flagWipe {
		n, err := repo.DeleteByOwner(ctx, flagOwner)
		if err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
		fmt.Printf("%s removed %d existing books\n", color.YellowString("wipe:"), n)
	}

	if err := repo.InsertMany(ctx, list); err != nil {
		if books.IsForeignKeyViolation(err) {
			return fmt.Errorf("owner %q does not exist", flagOwner)
		}
		return fmt.Errorf("insert: %w", err)
	}

	fmt.Printf("%s seeded %d books for %s\n", color.GreenString("ok:"), len(list), color.CyanString(flagOwner))
	return nil
}
