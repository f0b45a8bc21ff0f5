package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	env "github.com/joho/godotenv"
)

type EvaluationMode string

const (
	ModeSync  EvaluationMode = "sync"  // Submit returns the terminal record
	ModeAsync EvaluationMode = "async" // Submit returns the pending record, workers finish it
)

type Config struct {
	HTTPAddr           string         // Адрес HTTP API
	GRPCAddr           string         // Адрес gRPC API
	EvaluationMode     EvaluationMode // sync или async
	ComputingPower     int            // Количество воркеров в async режиме
	QueueSize          int            // Размер очереди вычислений
	MaxDepth           int            // Максимальная вложенность скобок
	DatabasePath       string         // Путь к SQLite базе, пусто = история в памяти
	TimeAddition       time.Duration  // Время выполнения сложения
	TimeSubtraction    time.Duration  // Время выполнения вычитания
	TimeMultiplication time.Duration  // Время выполнения умножения
	TimeDivision       time.Duration  // Время выполнения деления
	ShutdownTimeout    time.Duration
	LogLevel           string
	LogPretty          bool
	OrchestratorAddr   string // gRPC адрес оркестратора для агента
}

func Default() *Config {
	return &Config{
		HTTPAddr:         ":8080",
		GRPCAddr:         ":8081",
		EvaluationMode:   ModeSync,
		ComputingPower:   4,
		QueueSize:        100,
		MaxDepth:         64,
		ShutdownTimeout:  10 * time.Second,
		LogLevel:         "info",
		OrchestratorAddr: "localhost:8081",
	}
}

// LoadConfig reads an optional .env file and then the process environment.
// Unset variables keep their defaults, malformed ones are an error.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := env.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, typically os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("HTTP_ADDR", &cfg.HTTPAddr)
	p.str("GRPC_ADDR", &cfg.GRPCAddr)
	p.str("DATABASE_PATH", &cfg.DatabasePath)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("ORCHESTRATOR_GRPC_ADDR", &cfg.OrchestratorAddr)
	p.boolean("LOG_PRETTY", &cfg.LogPretty)
	p.positive("COMPUTING_POWER", &cfg.ComputingPower)
	p.positive("QUEUE_SIZE", &cfg.QueueSize)
	p.positive("MAX_DEPTH", &cfg.MaxDepth)
	p.millis("TIME_ADDITION_MS", &cfg.TimeAddition)
	p.millis("TIME_SUBTRACTION_MS", &cfg.TimeSubtraction)
	p.millis("TIME_MULTIPLICATIONS_MS", &cfg.TimeMultiplication)
	p.millis("TIME_DIVISIONS_MS", &cfg.TimeDivision)
	p.millis("SHUTDOWN_TIMEOUT_MS", &cfg.ShutdownTimeout)

	var mode string
	if p.str("EVALUATION_MODE", &mode) {
		switch EvaluationMode(mode) {
		case ModeSync, ModeAsync:
			cfg.EvaluationMode = EvaluationMode(mode)
		default:
			p.errs = append(p.errs, fmt.Errorf("EVALUATION_MODE: want %q or %q, got %q", ModeSync, ModeAsync, mode))
		}
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key string, dst *string) bool {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}

func (p *parser) boolean(key string, dst *bool) {
	var raw string
	if !p.str(key, &raw) {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %q", key, raw))
		return
	}
	*dst = v
}

func (p *parser) positive(key string, dst *int) {
	var raw string
	if !p.str(key, &raw) {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %q", key, raw))
		return
	}
	*dst = v
}

func (p *parser) millis(key string, dst *time.Duration) {
	var raw string
	if !p.str(key, &raw) {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %q", key, raw))
		return
	}
	*dst = time.Duration(v) * time.Millisecond
}
