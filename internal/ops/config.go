package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"main/internal/reconcile"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
)

const (
	minRefillDelay = 2 * time.Second
	maxRefillDelay = 24 * time.Second
)

// FileConfig mirrors the JSON config layout. Monetary thresholds are decimal
// USD strings; they resolve to integer milli-USD so no float ever reaches a
// trading decision.
type FileConfig struct {
	Market   MarketConfig   `json:"market"`
	Strategy StrategyConfig `json:"strategy"`
	Risk     RiskConfig     `json:"risk"`
	Engine   EngineConfig   `json:"engine"`
	Feeds    FeedsConfig    `json:"feeds"`
	Journal  JournalConfig  `json:"journal"`
}

// MarketConfig selects the market series to trade.
type MarketConfig struct {
	// DurationMinutes is the series cadence, 5 or 15.
	DurationMinutes int    `json:"durationMinutes"`
	GammaBaseURL    string `json:"gammaBaseUrl"`
}

// StrategyConfig holds the quoting parameters.
type StrategyConfig struct {
	MarginTicks           schema.Ticks       `json:"marginTicks"`
	LadderRungs           int                `json:"ladderRungs"`
	RungSpacingTicks      schema.Ticks       `json:"rungSpacingTicks"`
	MinOrderSize          schema.Shares      `json:"minOrderSize"`
	MinPriceTicks         schema.Ticks       `json:"minPriceTicks"`
	Bands                 strategy.SizeBands `json:"bands"`
	RebalanceThreshold    schema.Shares      `json:"rebalanceThreshold"`
	MaxTakeSize           schema.Shares      `json:"maxTakeSize"`
	MaxRebalanceLossTicks schema.Ticks       `json:"maxRebalanceLossTicks"`
	RefillDelaySeconds    int                `json:"refillDelaySeconds"`
}

// RiskConfig holds the risk limits with USD-string thresholds.
type RiskConfig struct {
	MaxPosition          schema.Shares `json:"maxPosition"`
	ProfitLockUSD        string        `json:"profitLockUsd"`
	CircuitBreakerUSD    string        `json:"circuitBreakerUsd"`
	CarryLatchesOnSwitch bool          `json:"carryLatchesOnSwitch"`
}

// EngineConfig tunes the core loop.
type EngineConfig struct {
	QueueCapacity      int           `json:"queueCapacity"`
	SizeTolerance      schema.Shares `json:"sizeTolerance"`
	StaleBookSeconds   int           `json:"staleBookSeconds"`
	ShutdownGraceSecs  int           `json:"shutdownGraceSeconds"`
	PyroscopeServerURL string        `json:"pyroscopeServerUrl"`
}

// FeedsConfig holds the upstream endpoints. Empty fields take the defaults.
type FeedsConfig struct {
	BinanceURL    string `json:"binanceUrl"`
	PolymarketURL string `json:"polymarketUrl"`
}

// JournalConfig enables the trade journal when a DSN is given.
type JournalConfig struct {
	PostgresDSN string `json:"postgresDsn"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Market    MarketConfig
	Strategy  strategy.Config
	Risk      risk.Config
	Reconcile reconcile.Config
	Engine    EngineConfig
	Feeds     FeedsConfig
	Journal   JournalConfig
}

// Load reads a JSON config file and resolves it. Any error here is fatal at
// startup; nothing reloads at runtime.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a parsed FileConfig and converts it to runtime types.
func Resolve(cfg FileConfig) (Loaded, error) {
	strat, err := resolveStrategy(cfg.Strategy)
	if err != nil {
		return Loaded{}, err
	}
	riskCfg, err := resolveRisk(cfg.Risk, strat.MinOrderSize)
	if err != nil {
		return Loaded{}, err
	}
	if err := validateMarket(cfg.Market); err != nil {
		return Loaded{}, err
	}
	engine, err := resolveEngine(cfg.Engine)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Market:    cfg.Market,
		Strategy:  strat,
		Risk:      riskCfg,
		Reconcile: reconcile.Config{SizeTolerance: cfg.Engine.SizeTolerance},
		Engine:    engine,
		Feeds:     cfg.Feeds,
		Journal:   cfg.Journal,
	}, nil
}

func validateMarket(cfg MarketConfig) error {
	if cfg.DurationMinutes != 5 && cfg.DurationMinutes != 15 {
		return fmt.Errorf("market durationMinutes must be 5 or 15, got %d", cfg.DurationMinutes)
	}
	return nil
}

func resolveStrategy(cfg StrategyConfig) (strategy.Config, error) {
	out := strategy.DefaultConfig()
	if cfg.MarginTicks > 0 {
		out.MarginTicks = cfg.MarginTicks
	}
	if cfg.LadderRungs > 0 {
		out.LadderRungs = cfg.LadderRungs
	}
	if cfg.RungSpacingTicks > 0 {
		out.RungSpacingTicks = cfg.RungSpacingTicks
	}
	if cfg.MinOrderSize > 0 {
		out.MinOrderSize = cfg.MinOrderSize
	}
	if cfg.MinPriceTicks > 0 {
		out.MinPriceTicks = cfg.MinPriceTicks
	}
	if cfg.Bands != (strategy.SizeBands{}) {
		out.Bands = cfg.Bands
	}
	if cfg.RebalanceThreshold > 0 {
		out.RebalanceThreshold = cfg.RebalanceThreshold
	}
	if cfg.MaxTakeSize > 0 {
		out.MaxTakeSize = cfg.MaxTakeSize
	}
	if cfg.MaxRebalanceLossTicks > 0 {
		out.MaxRebalanceLossTicks = cfg.MaxRebalanceLossTicks
	}
	if cfg.RefillDelaySeconds > 0 {
		out.RefillDelay = time.Duration(cfg.RefillDelaySeconds) * time.Second
	}
	if out.RefillDelay < minRefillDelay {
		out.RefillDelay = minRefillDelay
	}
	if out.RefillDelay > maxRefillDelay {
		out.RefillDelay = maxRefillDelay
	}

	if !out.MarginTicks.Valid() || !out.RungSpacingTicks.Valid() || !out.MinPriceTicks.Valid() {
		return strategy.Config{}, fmt.Errorf("strategy tick parameters out of range")
	}
	b := out.Bands
	if b.UpperPermille <= b.LowerPermille || b.LowerPermille <= 0 || b.UpperPermille >= 1000 {
		return strategy.Config{}, fmt.Errorf("bands must satisfy 0 < lowerPermille < upperPermille < 1000")
	}
	if b.Early < b.Mid || b.Mid < b.Late || b.Late <= 0 {
		return strategy.Config{}, fmt.Errorf("band sizes must be non-increasing and positive")
	}
	return out, nil
}

func resolveRisk(cfg RiskConfig, minOrderSize schema.Shares) (risk.Config, error) {
	lock, err := ParseUSD(cfg.ProfitLockUSD)
	if err != nil {
		return risk.Config{}, fmt.Errorf("risk profitLockUsd: %w", err)
	}
	breaker, err := ParseUSD(cfg.CircuitBreakerUSD)
	if err != nil {
		return risk.Config{}, fmt.Errorf("risk circuitBreakerUsd: %w", err)
	}
	if lock < 0 || breaker < 0 {
		return risk.Config{}, fmt.Errorf("risk thresholds must not be negative")
	}
	if cfg.MaxPosition < 0 {
		return risk.Config{}, fmt.Errorf("risk maxPosition must not be negative")
	}
	return risk.Config{
		MaxPosition:          cfg.MaxPosition,
		MinOrderSize:         minOrderSize,
		ProfitLock:           lock,
		CircuitBreaker:       breaker,
		CarryLatchesOnSwitch: cfg.CarryLatchesOnSwitch,
	}, nil
}

func resolveEngine(cfg EngineConfig) (EngineConfig, error) {
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = 1024
	}
	if cfg.QueueCapacity < 0 {
		return EngineConfig{}, fmt.Errorf("engine queueCapacity must be positive")
	}
	if cfg.SizeTolerance < 0 {
		return EngineConfig{}, fmt.Errorf("engine sizeTolerance must not be negative")
	}
	if cfg.StaleBookSeconds <= 0 {
		cfg.StaleBookSeconds = 5
	}
	if cfg.ShutdownGraceSecs <= 0 {
		cfg.ShutdownGraceSecs = 3
	}
	return cfg, nil
}

// ParseUSD converts a decimal USD string like "6.50" to integer milli-USD.
// At most three fractional digits are representable.
func ParseUSD(s string) (schema.MilliUSD, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid usd amount %q", s)
	}
	var v schema.MilliUSD
	for _, c := range whole {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid usd amount %q", s)
		}
		v = v*10 + schema.MilliUSD(c-'0')
		if v > 1_000_000_000 {
			return 0, fmt.Errorf("usd amount %q too large", s)
		}
	}
	v *= 1000
	scale := schema.MilliUSD(100)
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid usd amount %q", s)
		}
		if scale == 0 {
			if c != '0' {
				return 0, fmt.Errorf("usd amount %q finer than $0.001", s)
			}
			continue
		}
		v += schema.MilliUSD(c-'0') * scale
		scale /= 10
	}
	if neg {
		v = -v
	}
	return v, nil
}
