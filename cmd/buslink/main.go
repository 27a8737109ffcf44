package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/gps"
	"github.com/shaunagostinho/buslink/internal/logging"
	"github.com/shaunagostinho/buslink/internal/metrics"
	"github.com/shaunagostinho/buslink/internal/plc"
	"github.com/shaunagostinho/buslink/internal/server"
	"github.com/shaunagostinho/buslink/web"
)

func main() {
	configPath := flag.String("config", "/etc/buslink/config.yaml", "Path to config file")
	demo := flag.Bool("demo", false, "Run with simulated PLC and GPS")
	listenAddr := flag.String("listen", "", "Override listen address (e.g. :8080)")
	flag.Parse()

	boot, _ := zap.NewDevelopment()
	cfg := server.LoadConfig(*configPath, boot.Named("config"))

	if *demo {
		cfg.PLC.Type = "demo"
		cfg.GPS.Type = "demo"
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		boot.Fatal("logger setup failed", zap.Error(err))
	}
	defer logger.Sync()
	logger.Info("buslink starting", zap.String("plc", cfg.PLC.Type), zap.String("gps", cfg.GPS.Type))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.Stringer("signal", sig))
		cancel()
	}()

	reg := metrics.NewRegistry()
	protoMetrics := metrics.NewProtocol(reg)

	var plcProv plc.Provider
	switch cfg.PLC.Type {
	case "abus":
		cc, err := cfg.ClientConfig()
		if err != nil {
			logger.Fatal("bad plc config", zap.Error(err))
		}
		plcProv = plc.NewClient(cc, logger.Named("plc"), protoMetrics)
	default:
		plcProv = plc.NewDemo(logger.Named("plc"), protoMetrics)
	}

	var gpsProv gps.Provider
	switch cfg.GPS.Type {
	case "nmea":
		gpsProv = gps.NewNMEA(gps.NMEAConfig{
			PortPath: cfg.GPS.PortPath,
			BaudRate: cfg.GPS.BaudRate,
		}, logger.Named("gps"), protoMetrics)
	case "disabled":
		gpsProv = nil
	default:
		gpsProv = gps.NewDemoGPS(protoMetrics)
	}

	// One attempt each; the dashboard starts regardless and shows what it has.
	if err := plcProv.Connect(); err != nil {
		logger.Warn("plc connect failed", zap.String("provider", plcProv.Name()), zap.Error(err))
	}
	defer plcProv.Close()
	if gpsProv != nil {
		if err := gpsProv.Connect(); err != nil {
			logger.Warn("gps connect failed", zap.String("provider", gpsProv.Name()), zap.Error(err))
		}
		defer gpsProv.Close()
	}

	srv := server.New(cfg, plcProv, gpsProv, web.FS, metrics.Handler(reg), logger.Named("server"))
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
