// qrserver: looks up scanned codes in a Google Sheets range
// Serves POST /lookup, the legacy POST /buscar-qr, and websocket feeds
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/qrlookup/internal/config"
	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/lookup"
	"github.com/teslashibe/qrlookup/pkg/sheets"
	"github.com/teslashibe/qrlookup/pkg/web"
)

var (
	envFile     = flag.String("env", ".env", "Path to .env file")
	port        = flag.String("port", config.DefaultPort, "HTTP server port")
	sheetID     = flag.String("sheet", "", "Spreadsheet ID")
	sheetRange  = flag.String("range", config.DefaultSheetRange, "Sheet range to read")
	credentials = flag.String("credentials", config.DefaultCredentialsFile, "Service account JSON file")
	timeout     = flag.Duration("timeout", config.DefaultLookupTimeout, "Sheets fetch timeout")
	staticDir   = flag.String("static", "", "Directory served at /")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		os.Exit(1)
	}

	// Flags set on the command line win over the environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "sheet":
			cfg.SpreadsheetID = *sheetID
		case "range":
			cfg.SheetRange = *sheetRange
		case "credentials":
			cfg.CredentialsFile = *credentials
		case "timeout":
			cfg.LookupTimeout = *timeout
		case "static":
			cfg.StaticDir = *staticDir
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	fmt.Println()
	fmt.Println("🔎 QR Lookup Server")
	fmt.Println("===================")

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n❌ %v\n", err)
		fmt.Println("   Set SPREADSHEET_ID in the environment or .env, or pass -sheet")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Print("📄 Connecting to Google Sheets... ")
	src, err := sheets.New(ctx,
		sheets.WithSpreadsheetID(cfg.SpreadsheetID),
		sheets.WithCredentialsFile(cfg.CredentialsFile),
		sheets.WithLogger(logger),
	)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅")

	svc := lookup.NewService(src,
		lookup.WithRange(cfg.SheetRange),
		lookup.WithTimeout(cfg.LookupTimeout),
		lookup.WithLogger(logger),
	)
	fmt.Printf("   Sheet: %s\n", cfg.SpreadsheetID)
	fmt.Printf("   Range: %s\n", svc.Range())

	srv := web.NewServer(svc,
		web.WithPort(cfg.Port),
		web.WithStaticDir(cfg.StaticDir),
		web.WithRequestLogging(*debug),
		web.WithLogger(logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("   Lookup:    POST http://localhost:%s/lookup\n", cfg.Port)
	fmt.Printf("   Events:    ws://localhost:%s/ws/lookups\n", cfg.Port)
	fmt.Printf("   Stations:  ws://localhost:%s/ws/station\n", cfg.Port)
	fmt.Printf("   Health:    http://localhost:%s/health\n", cfg.Port)
	fmt.Println()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("\n👋 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	fmt.Println("✅ Goodbye!")
}
