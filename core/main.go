package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-softwarelab/common/pkg/slogx"

	"github.com/sirdeggen/gebunden-spv/headers"
)

// version is set at build time via -ldflags "-X main.version=x.y.z"
var version = "dev"

func main() {
	configFile := flag.String("config", "", "Path to verifier config JSON file")
	txHex := flag.String("tx", "", "Hex encoded proven transaction to verify")
	headerHex := flag.String("header", "", "Hex encoded 80-byte block header to verify against")
	height := flag.Uint64("height", 0, "Block height to fetch the header for instead of -header")
	rootOnly := flag.Bool("root-only", false, "With -height, check only the Merkle root and skip the block hash")
	serve := flag.Bool("serve", false, "Run the HTTP verify server")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slogx.NewLogger(
		slogx.WithLevel(slogx.LogLevel(cfg.LogLevel)),
		slogx.WithWriter(os.Stderr),
	)

	source, err := newHeaderSource(logger, cfg)
	if err != nil {
		log.Fatalf("Failed to set up header source: %v", err)
	}
	svc := NewVerifyService(logger, source)

	if *serve {
		runServer(logger, cfg, svc)
		return
	}

	if *txHex == "" {
		flag.Usage()
		os.Exit(2)
	}

	args := onceArgs{tx: *txHex, header: *headerHex, height: *height, rootOnly: *rootOnly}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "height" {
			args.heightSet = true
		}
	})

	res, err := runOnce(context.Background(), svc, args)
	if err != nil {
		log.Fatalf("Verification could not run: %v", err)
	}

	if err := writeResult(os.Stdout, res); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	if !res.Valid {
		os.Exit(1)
	}
}

// onceArgs are the one-shot mode flags.
type onceArgs struct {
	tx        string
	header    string
	height    uint64
	heightSet bool
	rootOnly  bool
}

// runOnce verifies against -header or the header at -height; exactly one of
// them must be given.
func runOnce(ctx context.Context, svc *VerifyService, args onceArgs) (VerifyResult, error) {
	switch {
	case args.header != "" && args.heightSet:
		return VerifyResult{}, fmt.Errorf("-header and -height are mutually exclusive")
	case args.header != "":
		if args.rootOnly {
			return VerifyResult{}, fmt.Errorf("-root-only requires -height")
		}
		return svc.Verify(args.tx, args.header)
	case !args.heightSet:
		return VerifyResult{}, fmt.Errorf("one of -header or -height is required")
	}

	if args.height > math.MaxUint32 {
		return VerifyResult{}, fmt.Errorf("height %d exceeds %d", args.height, uint32(math.MaxUint32))
	}
	height := uint32(args.height)

	if args.rootOnly {
		return svc.VerifyRoot(ctx, args.tx, height)
	}
	return svc.VerifyAtHeight(ctx, args.tx, height)
}

// headerCacheTTL bounds how long a cached header can outlive a reorg.
const headerCacheTTL = 24 * time.Hour

func newHeaderSource(logger *slog.Logger, cfg Config) (headers.Source, error) {
	var source headers.Source = headers.NewWhatsOnChain(cfg.Network, cfg.WocAPIKey)
	if cfg.RedisURL == "" {
		return source, nil
	}
	client, err := headers.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return headers.NewCached(logger, client, source, "spv:header:"+cfg.Network+":", headerCacheTTL), nil
}

func writeResult(w io.Writer, res VerifyResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// runServer starts the HTTP server and blocks until SIGINT or SIGTERM.
func runServer(logger *slog.Logger, cfg Config, svc *VerifyService) {
	logger.Info("Starting SPV verifier", "version", version, "network", cfg.Network)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := NewHTTPServer(logger, cfg.ListenAddr)
	httpServer.SetVerifyService(svc)

	go func() {
		if err := httpServer.Start(ctx); err != nil {
			logger.Error("HTTP server error", slogx.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down...")
	cancel()
	httpServer.Stop()
	logger.Info("Goodbye")
}
