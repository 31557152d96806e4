package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables, so ISBN_API_LOG_LEVEL
// sets log_level.
const EnvPrefix = "ISBN_API_"

// Config holds the server settings.
type Config struct {
	Addr        string   `koanf:"addr" validate:"required"`
	Host        string   `koanf:"host"`
	LogLevel    string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	JWTSecret   string   `koanf:"jwt_secret"`
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,required"`
	RateRPS     float64  `koanf:"rate_rps" validate:"gte=0"`
	RateBurst   int      `koanf:"rate_burst" validate:"required_with=RateRPS,gte=0"`
	Tracing     bool     `koanf:"tracing"`
	TrustProxy  bool     `koanf:"trust_proxy"`
}

// Flags returns the server flag set with its defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("isbn-api", pflag.ContinueOnError)
	f.String("config", "", "path to a YAML configuration file")
	f.String("addr", ":80", "listen address")
	f.String("host", "", "public base URL, defaults to http://localhost<addr>")
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.String("jwt-secret", "", "HMAC secret for bearer tokens, empty disables auth")
	f.StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
	f.Float64("rate-rps", 0, "requests per second per client, 0 disables rate limiting")
	f.Int("rate-burst", 0, "rate limit burst size")
	f.Bool("tracing", false, "export OpenTelemetry traces over OTLP gRPC")
	f.Bool("trust-proxy", false, "take the client address from X-Real-IP or X-Forwarded-For")
	return f
}

// Load parses args and merges, in increasing priority, flag defaults, the
// YAML file named by --config, ISBN_API_* environment variables and flags set
// on the command line.
func Load(args []string) (*Config, error) {
	f := Flags()
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
		return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = "http://localhost" + cfg.Addr
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return err
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
