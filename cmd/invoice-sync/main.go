package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/tmlerp/invoice-sync/internal/ingest"
	"github.com/tmlerp/invoice-sync/internal/ledger"
	"github.com/tmlerp/invoice-sync/internal/mailbox"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-sync")
	var (
		dbPath          = fs.StringLong("db", "invoice-sync.db", "Database file path")
		uploadDir       = fs.StringLong("uploads", "./invoices", "Directory for downloaded invoice PDFs")
		credentialsPath = fs.StringLong("credentials", "credentials/gmail_credentials.json", "Path to the Gmail OAuth client secret file")
		tokenPath       = fs.StringLong("token", "credentials/gmail_token.json", "Path to the stored Gmail OAuth token")
		interval        = fs.DurationLong("interval", 0, "Re-run the sync on this interval (0 runs a single pass)")
		vendorName      = fs.StringLong("name", "", "Vendor name (add-vendor)")
		vendorLabel     = fs.StringLong("label", "", "Gmail label bound to the vendor (add-vendor)")
		vendorType      = fs.StringLong("type", "expense", "Vendor entry type, 'income' or 'expense' (add-vendor)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_SYNC"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	command := "sync"
	if args := fs.GetArgs(); len(args) > 0 {
		command = args[0]
	}

	if command == "authorize" {
		os.Exit(authorize(mailbox.Config{
			CredentialsPath: *credentialsPath,
			TokenPath:       *tokenPath,
		}))
	}

	slog.Info("Opening database...", "path", *dbPath)
	db, err := ledger.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch command {
	case "sync":
		cfg := mailbox.Config{
			CredentialsPath: *credentialsPath,
			TokenPath:       *tokenPath,
		}
		os.Exit(runSync(db, cfg, *uploadDir, *interval))
	case "add-vendor":
		os.Exit(addVendor(db, *vendorName, *vendorLabel, *vendorType))
	case "vendors":
		os.Exit(listVendors(db))
	case "entries":
		os.Exit(listEntries(db))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected sync, authorize, add-vendor, vendors or entries)\n", command)
		os.Exit(1)
	}
}

// authorize runs the one-time OAuth consent flow and stores the token for
// later sync runs.
func authorize(cfg mailbox.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mailbox.ProvisionToken(ctx, cfg, os.Stdout, os.Stdin); err != nil {
		if errors.Is(err, mailbox.ErrNoCredentials) {
			fmt.Fprintf(os.Stderr, "client secret not found at %s\n", cfg.CredentialsPath)
			return 1
		}
		slog.Error("Failed to provision Gmail token", "error", err)
		return 1
	}
	fmt.Printf("token stored at %s\n", cfg.TokenPath)
	return 0
}

// runSync performs one ingestion pass, or keeps re-running it when an
// interval is configured. Missing mailbox credentials are an expected state
// (they may not be provisioned yet) and report zero instead of failing.
func runSync(db ledger.DB, cfg mailbox.Config, uploadDir string, interval time.Duration) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := mailbox.NewGmail(ctx, cfg)
	if err != nil {
		if errors.Is(err, mailbox.ErrNoCredentials) {
			slog.Warn("Gmail credentials not provisioned, nothing to sync", "credentials", cfg.CredentialsPath, "token", cfg.TokenPath)
			fmt.Println("0 invoices imported")
			return 0
		}
		slog.Error("Failed to connect to Gmail", "error", err)
		return 1
	}

	storage, err := ledger.NewLocalStorage(uploadDir)
	if err != nil {
		slog.Error("Failed to initialize upload directory", "error", err)
		return 1
	}

	service := ingest.NewService(source, db, storage)

	for {
		count, err := service.Sync(ctx)
		if err != nil {
			slog.Error("Sync pass failed", "error", err)
			return 1
		}
		fmt.Printf("%d invoices imported\n", count)

		if interval <= 0 {
			return 0
		}
		select {
		case <-ctx.Done():
			slog.Info("Shutting down...")
			return 0
		case <-time.After(interval):
		}
	}
}

func addVendor(db ledger.DB, name, label, typ string) int {
	if name == "" {
		fmt.Fprintln(os.Stderr, "add-vendor requires --name")
		return 1
	}
	transactionType := ledger.TransactionType(typ)
	if transactionType != ledger.Income && transactionType != ledger.Expense {
		fmt.Fprintf(os.Stderr, "invalid --type %q (expected income or expense)\n", typ)
		return 1
	}

	vendor := &ledger.Vendor{
		ID:         uuid.NewString(),
		Name:       name,
		GmailLabel: label,
		Type:       transactionType,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	if err := db.SaveVendor(vendor); err != nil {
		slog.Error("Failed to save vendor", "error", err)
		return 1
	}
	fmt.Printf("vendor %s created (%s)\n", vendor.Name, vendor.ID)
	return 0
}

func listVendors(db ledger.DB) int {
	vendors, err := db.ListVendors()
	if err != nil {
		slog.Error("Failed to list vendors", "error", err)
		return 1
	}
	for _, v := range vendors {
		label := v.GmailLabel
		if label == "" {
			label = "-"
		}
		active := "active"
		if !v.Active {
			active = "inactive"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Type, label, active)
	}
	return 0
}

func listEntries(db ledger.DB) int {
	entries, err := db.ListEntries()
	if err != nil {
		slog.Error("Failed to list entries", "error", err)
		return 1
	}
	for _, e := range entries {
		number := e.InvoiceNumber
		if number == "" {
			number = "-"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n", e.Date.Format("2006-01-02"), e.Type, e.Amount.StringFixed(2), number, e.Origin, e.Title)
	}
	return 0
}
