// qrscan: scans QR codes from a local camera and looks them up
//
// Each scan stops the camera once a code is decoded, sends it to the lookup
// server, and prints the record. Press Enter to scan again.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/qrlookup/internal/config"
	"github.com/teslashibe/qrlookup/internal/log"
	"github.com/teslashibe/qrlookup/pkg/camera"
	"github.com/teslashibe/qrlookup/pkg/decoder"
	"github.com/teslashibe/qrlookup/pkg/lookup"
	"github.com/teslashibe/qrlookup/pkg/lookupclient"
	"github.com/teslashibe/qrlookup/pkg/scanner"
)

var (
	envFile   = flag.String("env", ".env", "Path to .env file")
	lookupURL = flag.String("url", config.DefaultLookupURL, "Lookup endpoint")
	transport = flag.String("transport", "http", "Lookup transport: http or ws")
	device    = flag.Int("device", 0, "Camera device index")
	preset    = flag.String("preset", config.DefaultCameraPreset, "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	facing    = flag.String("facing", string(scanner.FacingEnvironment), "Camera facing: environment or user")
	invert    = flag.String("invert", string(scanner.DontInvert), "Inversion attempts: dontInvert, onlyInvert, attemptBoth, invertFirst")
	timeout   = flag.Duration("timeout", 15*time.Second, "Lookup request timeout")
	once      = flag.Bool("once", false, "Exit after the first lookup")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

type lookuper interface {
	Lookup(ctx context.Context, code string) (*lookup.Result, error)
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the exit code so deferred cleanup always runs.
func run() int {
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	cfg, err := config.LoadScanner()
	if err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.LookupURL = *lookupURL
		case "device":
			cfg.CameraDevice = *device
		case "preset":
			cfg.CameraPreset = *preset
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	fmt.Println()
	fmt.Println("📷 QR Scanner")
	fmt.Println("=============")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	camCfg := camera.GetPreset(cfg.CameraPreset)
	if camCfg == nil {
		fmt.Printf("❌ Unknown preset %q (have: %s)\n", cfg.CameraPreset, strings.Join(camera.PresetNames(), ", "))
		return 1
	}
	camCfg.Device = cfg.CameraDevice
	cam, err := camera.New(*camCfg)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return 1
	}
	fmt.Printf("   Camera: device %d, %dx%d@%d\n", camCfg.Device, camCfg.Width, camCfg.Height, camCfg.Framerate)

	dec := decoder.NewQR()
	defer dec.Close()

	client, closeClient, err := dial(ctx, cfg.LookupURL)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return 1
	}
	defer closeClient()

	sc := scanner.New(cam, dec,
		scanner.WithFacingMode(scanner.FacingMode(*facing)),
		scanner.WithInversion(scanner.InversionAttempts(*invert)),
		scanner.WithLogger(logger),
	)
	defer sc.Stop()

	lines := readLines(ctx)
	exitCode := 0

scan:
	for {
		fmt.Println("\n🔄 Scanning... (Ctrl+C to stop)")
		code, err := sc.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break scan
			}
			var camErr *scanner.CameraError
			if errors.As(err, &camErr) {
				fmt.Printf("❌ No se pudo acceder a la cámara: %v\n", err)
				exitCode = 1
				break scan
			}
			fmt.Printf("❌ %v\n", err)
		} else {
			fmt.Printf("✅ Código: %s\n", code)
			fmt.Println("🔍 Consultando Google Sheets...")
			show(ctx, client, code)
		}

		if *once {
			break scan
		}
		fmt.Println("\n⏎  Press Enter to scan again")
		if !waitEnter(ctx, lines, time.Now()) {
			break scan
		}
	}

	fmt.Println("\n👋 Goodbye!")
	return exitCode
}

// dial returns the lookup client for the selected transport.
func dial(ctx context.Context, rawURL string) (lookuper, func(), error) {
	switch *transport {
	case "http":
		fmt.Printf("   Lookup: %s\n", rawURL)
		return lookupclient.New(rawURL), func() {}, nil
	case "ws":
		wsURL, err := stationURL(rawURL)
		if err != nil {
			return nil, nil, err
		}
		fmt.Printf("   Lookup: %s\n", wsURL)
		st, err := lookupclient.Dial(ctx, wsURL, log.L())
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", *transport)
	}
}

// stationURL maps http(s)://host/lookup to ws(s)://host/ws/station.
func stationURL(lookupURL string) (string, error) {
	u, err := url.Parse(lookupURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/station"
	return u.String(), nil
}

func show(ctx context.Context, client lookuper, code string) {
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	res, err := client.Lookup(ctx, code)
	var srvErr *lookupclient.ServerError
	switch {
	case err == nil:
		lookupclient.Print(os.Stdout, res)
	case errors.Is(err, lookupclient.ErrUnreachable):
		fmt.Println("⚠️  No se pudo conectar con el backend. ¿Está corriendo?")
	case errors.Is(err, lookup.ErrEmptyTable):
		fmt.Println("⚠️  La hoja está vacía")
	case errors.As(err, &srvErr):
		fmt.Printf("⚠️  %s\n", srvErr.Message)
	default:
		fmt.Printf("⚠️  Error en la consulta: %v\n", err)
	}
}

// line is one line of stdin and when it was read.
type line struct {
	text string
	at   time.Time
}

// readLines forwards stdin lines until EOF or ctx is done.
func readLines(ctx context.Context) <-chan line {
	ch := make(chan line)
	go func() {
		defer close(ch)
		s := bufio.NewScanner(os.Stdin)
		for s.Scan() {
			select {
			case ch <- line{text: s.Text(), at: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// waitEnter blocks until a line read after since arrives. Lines typed
// before the prompt are discarded. It reports false on EOF or ctx done.
func waitEnter(ctx context.Context, lines <-chan line, since time.Time) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case l, ok := <-lines:
			if !ok {
				return false
			}
			if l.at.Before(since) {
				continue
			}
			return true
		}
	}
}
