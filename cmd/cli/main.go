package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/receipts"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "insights":
		runInsights()
	case "goals":
		runGoals()
	case "scan-receipt":
		runScanReceipt()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  insights       Print the advanced insights report of a user")
	fmt.Println("  goals          List the savings goals of a user")
	fmt.Println("  scan-receipt   Upload a receipt image and record it as a transaction")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// commonFlags registers the flags shared by every subcommand.
type commonFlags struct {
	fs         *flag.FlagSet
	userID     *string
	configPath *string
}

func newFlagSet(name string) commonFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return commonFlags{
		fs:         fs,
		userID:     fs.String("user", "", "User ID (required)"),
		configPath: fs.String("config", "", "Path to YAML config file"),
	}
}

// setup parses flags, loads configuration and wires the application.
func (c commonFlags) setup(ctx context.Context) (*app.App, zerolog.Logger) {
	c.fs.Parse(os.Args[2:])

	cfg, err := config.Load(*c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays valid JSON.
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: os.Stderr})

	if *c.userID == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	a, err := app.New(logger.WithContext(ctx, log), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return a, log
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runInsights() {
	flags := newFlagSet("insights")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, log := flags.setup(ctx)
	defer a.Close()

	report, err := a.Engine.Generate(ctx, *flags.userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate insights")
	}
	if err := printJSON(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to print report")
	}

	// Flag writes are queued by Generate; apply them before exiting.
	if err := drainFlagJobs(ctx, a, *flags.userID); err != nil {
		log.Warn().Err(err).Msg("Anomaly flags were not persisted")
	}
}

// drainFlagJobs runs the queued flag_anomalies jobs of userID synchronously.
func drainFlagJobs(ctx context.Context, a *app.App, userID string) error {
	pending, err := a.JobStore.ListJobs(ctx, jobs.JobFilter{
		UserID: userID,
		Type:   jobs.JobTypeFlagAnomalies,
		Status: jobs.JobStatusPending,
	})
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := a.Jobs.Process(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func runGoals() {
	flags := newFlagSet("goals")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, log := flags.setup(ctx)
	defer a.Close()

	goals, err := a.Goals.ListGoals(ctx, *flags.userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list goals")
	}
	if err := printJSON(goals); err != nil {
		log.Fatal().Err(err).Msg("Failed to print goals")
	}
}

// contentTypeOf guesses a receipt content type from the extension, then the content.
func contentTypeOf(path string, head []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(head)
}

func runScanReceipt() {
	flags := newFlagSet("scan-receipt")
	filePath := flags.fs.String("file", "", "Path to the receipt image or PDF (required)")
	accountID := flags.fs.String("account", "", "Account ID to attach the transaction to")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, log := flags.setup(ctx)
	defer a.Close()

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli scan-receipt -user ID -file PATH")
	}
	if a.Scanner == nil {
		log.Fatal().Msg("Receipt scanning needs storage.bucket (FINSIGHT_STORAGE_BUCKET)")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open receipt")
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatal().Err(err).Msg("Failed to read receipt")
	}
	contentType, err := receipts.NormalizeContentType(contentTypeOf(*filePath, head[:n]))
	if err != nil {
		log.Fatal().Err(err).Msg("Receipt must be an image or a PDF")
	}

	objectName, err := a.Scanner.Upload(ctx, *flags.userID, contentType, f)
	if err != nil {
		log.Fatal().Err(err).Str("content_type", contentType).Msg("Upload failed")
	}

	tx, err := a.Scanner.Scan(ctx, *flags.userID, jobs.ScanReceiptPayload{
		ObjectName:  objectName,
		ContentType: contentType,
		AccountID:   *accountID,
	})
	if err != nil {
		log.Fatal().Err(err).Str("object_name", objectName).Msg("Scan failed")
	}
	if err := printJSON(tx); err != nil {
		log.Fatal().Err(err).Msg("Failed to print transaction")
	}
}
