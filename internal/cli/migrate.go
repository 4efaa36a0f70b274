package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/kvstore"
	"github.com/clipshelf/clipshelf/internal/migration"
	"github.com/clipshelf/clipshelf/internal/storage/local"
	"github.com/clipshelf/clipshelf/internal/storage/remote"
)

// MigrateCommand copies local books and clips to the remote backend once,
// outside the normal sign-in flow.
type MigrateCommand struct {
	DatabasePath string
	UserID       string
	RemoteURL    string
	RemoteAPIKey string
	DryRun       bool
	Verbose      bool
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the local database file")
	fs.StringVar(&cmd.UserID, "user", "", "Remote user ID to migrate the data under (required)")
	fs.StringVar(&cmd.RemoteURL, "remote-url", cfg.Remote.BaseURL, "Base URL of the remote row API")
	fs.StringVar(&cmd.RemoteAPIKey, "remote-api-key", cfg.Remote.APIKey, "API key for the remote row API")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be migrated without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate -user <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Copy books and clips from the local database to the remote store.\n\n")
		fmt.Fprintf(os.Stderr, "Remote URL and API key default to the REMOTE_BASE_URL and\n")
		fmt.Fprintf(os.Stderr, "REMOTE_API_KEY environment variables.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.UserID == "" {
		return fmt.Errorf("required flag -user not provided")
	}
	if cmd.RemoteURL == "" {
		return fmt.Errorf("remote URL not set; use -remote-url or REMOTE_BASE_URL")
	}

	return nil
}

func (cmd *MigrateCommand) Run() error {
	fmt.Println("Migrate Local Data")
	fmt.Println("==================")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	kv, err := kvstore.Open(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer kv.Close()

	localBackend := local.New(kv)

	ctx := context.Background()

	books, err := localBackend.GetAllBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local books: %w", err)
	}
	clips, err := localBackend.GetAllClips(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local clips: %w", err)
	}

	fmt.Printf("Found %d books and %d clips in %s\n", len(books), len(clips), cmd.DatabasePath)

	if cmd.Verbose {
		fmt.Println("\n=== Books Found ===")
		for i, book := range books {
			fmt.Printf("%d. %q by %s\n", i+1, book.Title, book.Author)
		}
	}

	if cmd.DryRun {
		fmt.Println("\nDry run complete. Use without -dry-run to migrate.")
		return nil
	}

	remoteBackend := remote.New(
		remote.NewClient(cmd.RemoteURL, cmd.RemoteAPIKey),
		func() string { return cmd.UserID },
	)

	strategy := migration.NewCopyStrategy(localBackend, remoteBackend)

	fmt.Println("\nMigrating to remote store...")
	report, err := strategy.Migrate(ctx, func(p migration.Progress) {
		if cmd.Verbose {
			fmt.Printf("  %d/%d processed\n", p.Current, p.Total)
		}
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("\n=== Migration Summary ===")
	fmt.Printf("Items processed: %d/%d\n", report.Processed, report.Total)
	if report.Failed > 0 {
		fmt.Printf("Items failed: %d\n", report.Failed)
	}

	fmt.Println("\nMigration complete!")
	return nil
}
