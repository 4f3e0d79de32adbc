// Deribit BTC-PERPETUAL trading bot. Each invocation consumes one
// external signal event, reconciles the position on the venue and
// exits; the websocket session lives for exactly one run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"deribit-trading-bot/execution"
	"deribit-trading-bot/marketdata"
	"deribit-trading-bot/strategy"
	"deribit-trading-bot/transport"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	statusOK    = 200
	statusError = 500
)

// eventSignal reads the strategy signal out of the raw trigger event.
// Unknown fields are ignored; a malformed event is an error rather than
// an implicit hold.
type eventSignal struct {
	raw json.RawMessage
}

func (e eventSignal) Signal(context.Context) (strategy.Signal, error) {
	var sig strategy.Signal
	if len(e.raw) == 0 {
		return sig, nil
	}
	if err := json.Unmarshal(e.raw, &sig); err != nil {
		return sig, fmt.Errorf("parse signal event: %w", err)
	}
	return sig, nil
}

// Run executes one full bot pass for the given event payload. It
// returns a status message and an HTTP-style code so the hosting
// trigger can report the outcome.
func Run(ctx context.Context, event json.RawMessage, logger *zap.Logger) (string, int) {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("configuration invalid", zap.Error(err))
		return err.Error(), statusError
	}

	creds := transport.Credentials{
		ClientID:     os.Getenv("DERIBIT_CLIENT_ID"),
		ClientSecret: os.Getenv("DERIBIT_CLIENT_SECRET"),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		logger.Error("missing DERIBIT_CLIENT_ID / DERIBIT_CLIENT_SECRET")
		return "missing venue credentials", statusError
	}

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr, logger)
	}

	session, err := transport.Dial(ctx, cfg.WebsocketURL, logger)
	if err != nil {
		logger.Error("connection failed", zap.Error(err))
		return err.Error(), statusError
	}
	defer session.Close()

	if err := session.Authenticate(ctx, creds); err != nil {
		logger.Error("authentication failed", zap.Error(err))
		return err.Error(), statusError
	}

	engineCfg := cfg.engineConfig()
	reader := marketdata.NewReader(session, cfg.readerConfig(), logger)
	commander := execution.NewCommander(session, reader, engineCfg, logger)
	chaser := execution.NewChaser(reader, commander, engineCfg, logger)
	brackets := execution.NewBracketPlacer(commander, reader, engineCfg, logger)
	transitions := execution.NewTransitionManager(reader, chaser, brackets, commander, engineCfg, logger)
	driver := strategy.NewDriver(reader, transitions, cfg.driverConfig(), logger)

	var provider strategy.Provider = eventSignal{raw: event}
	sig, err := provider.Signal(ctx)
	if err != nil {
		logger.Error("bad signal event", zap.Error(err))
		return err.Error(), statusError
	}

	if err := driver.Execute(ctx, sig); err != nil {
		logger.Error("execution failed", zap.Error(err))
		return err.Error(), statusError
	}

	logger.Info("run complete")
	return "Function executed successfully", statusOK
}

func main() {
	if err := godotenv.Overload(); err != nil {
		log.Printf("no .env file loaded, relying on existing env vars: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	event := json.RawMessage(os.Getenv("SIGNAL_EVENT"))
	msg, code := Run(ctx, event, logger)
	logger.Info("bot finished", zap.String("status", msg), zap.Int("code", code))
	if code != statusOK {
		os.Exit(1)
	}
}
