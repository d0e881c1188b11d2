package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/route-beacon/mllp-gateway/internal/config"
	"github.com/route-beacon/mllp-gateway/internal/dispatch"
	mllpgwhttp "github.com/route-beacon/mllp-gateway/internal/http"
	"github.com/route-beacon/mllp-gateway/internal/kafkaegress"
	"github.com/route-beacon/mllp-gateway/internal/metrics"
	"github.com/route-beacon/mllp-gateway/internal/mllp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: mllp-gateway <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve   Start the MLLP ingestion gateway")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>   Path to configuration YAML file")
	fmt.Println("  --log-level <lvl> Override log level (debug, info, warn, error)")
}

func parseFlags(args []string) (configPath string, logLevel string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				logLevel = args[i+1]
				i++
			}
		}
	}
	return
}

func loadConfig(args []string) (*config.Config, *zap.Logger) {
	configPath, logLevelOverride := parseFlags(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if logLevelOverride != "" {
		cfg.Service.LogLevel = logLevelOverride
	}

	logger := initLogger(cfg.Service.LogLevel)
	return cfg, logger
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runServe() {
	cfg, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	metrics.Register()

	logger.Info("starting mllp-gateway",
		zap.String("instance_id", cfg.Service.InstanceID),
		zap.String("http_listen", cfg.Service.HTTPListen),
		zap.String("tcp_addr", cfg.TCP.Addr()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tlsCfg, err := cfg.Kafka.BuildTLSConfig()
	if err != nil {
		logger.Fatal("failed to build TLS config", zap.Error(err))
	}
	saslMech := cfg.Kafka.BuildSASLMechanism()

	producer, err := kafkaegress.NewProducer(kafkaegress.Config{
		Brokers:        cfg.Kafka.Brokers,
		ClientID:       cfg.Kafka.ClientID,
		FetchMaxBytes:  cfg.Kafka.ProducerBatchMaxBytes,
		TLS:            tlsCfg,
		SASL:           saslMech,
		RequestInTopic: cfg.Kafka.Topics.RequestIn,
		FHIRTopic:      cfg.Kafka.Topics.InboundFhirTransactions,
		ExceptionTopic: cfg.Kafka.Topics.Exceptions,
	}, logger.Named("kafka.producer"))
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	disp := dispatch.New(producer, cfg.HealthcareOrganization.Code, cfg.HealthcareOrganization.Name, logger.Named("dispatch"))

	ackClock := &mllp.AckClock{}
	listener := mllp.NewListener(cfg.TCP.Addr(), producer, disp, ackClock, logger.Named("mllp"))

	var listenerErrCh = make(chan error, 1)
	go func() { listenerErrCh <- listener.Serve(ctx) }()

	logger.Info("mllp listener started", zap.String("addr", cfg.TCP.Addr()))

	httpServer := mllpgwhttp.NewServer(cfg.Service.HTTPListen, listener, producer, ackClock, logger.Named("http"))
	if err := httpServer.Start(); err != nil {
		logger.Fatal("failed to start HTTP server", zap.Error(err))
	}

	logger.Info("mllp-gateway started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownTimeout := time.Duration(cfg.Service.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	cancel()

	select {
	case err := <-listenerErrCh:
		if err != nil {
			logger.Error("mllp listener stopped with error", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout reached, mllp listener may not have finished draining")
	}

	logger.Info("mllp-gateway stopped")
}
