// Package cli implements the maintenance subcommands of the librarium binary.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/importers"
)

// ImportBooksCommand loads a book catalog CSV into the database.
type ImportBooksCommand struct {
	FilePath     string
	DatabasePath string
	Verbose      bool
	DryRun       bool
}

func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the book catalog CSV file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a book catalog from a CSV file.\n\n")
		fmt.Fprintf(os.Stderr, "Expected headers: title, author, isbn, categories (optional).\n")
		fmt.Fprintf(os.Stderr, "Category names are separated by semicolons and created on demand.\n")
		fmt.Fprintf(os.Stderr, "Books whose ISBN already exists are skipped, so re-running is safe.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import a catalog:\n")
		fmt.Fprintf(os.Stderr, "  %s import-books -file catalog.csv\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview what would be imported:\n")
		fmt.Fprintf(os.Stderr, "  %s import-books -file catalog.csv -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportBooksCommand) Run() error {
	fmt.Println("Book Catalog Import")
	fmt.Println("===================")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	fmt.Printf("File: %s\n", cmd.FilePath)

	rows, lineErrors, err := importers.ParseBooksCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	fmt.Printf("Parsed %d book(s)\n", len(rows))
	if len(lineErrors) > 0 {
		fmt.Printf("%d line(s) could not be parsed\n", len(lineErrors))
		if cmd.Verbose {
			for _, e := range lineErrors {
				fmt.Printf("  %s\n", e)
			}
		}
	}

	if cmd.Verbose {
		fmt.Println("\n=== Books Found ===")
		for i, row := range rows {
			fmt.Printf("%d. %q by %s (ISBN %s)\n", i+1, row.Title, row.Author, row.ISBN)
		}
	}

	if cmd.DryRun {
		fmt.Println("\nDry run complete. Use without -dry-run to import.")
		return nil
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	importer := importers.NewBooksCSVImporter(
		books.NewRepository(db.DB),
		categories.NewRepository(db.DB),
	)
	result := importer.Import(rows)

	fmt.Printf("\nImport complete: %d created, %d skipped (already in catalog)\n",
		result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf("%d row(s) failed:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}

	return nil
}
