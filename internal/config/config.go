package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type SessionConfig struct {
	UserName string `yaml:"user_name"`
}

type DialogueConfig struct {
	Mode     string `yaml:"mode"` // mock, gemini, exec
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Command  string `yaml:"command"`
}

type RecorderConfig struct {
	Mode              string  `yaml:"mode"` // mock, exec
	Command           string  `yaml:"command"`
	SampleRate        int     `yaml:"sample_rate"`
	Channels          int     `yaml:"channels"`
	WordsPerSecond    float64 `yaml:"words_per_second"`
	MinRecordDuration float64 `yaml:"min_record_duration"`
}

type STTConfig struct {
	Mode      string `yaml:"mode"` // mock, exec
	Command   string `yaml:"command"`
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
}

type ScoreConfig struct {
	Mode string `yaml:"mode"` // aligned, positional
}

type SegmenterConfig struct {
	OutputDir     string `yaml:"output_dir"`
	ClearExisting bool   `yaml:"clear_existing"`
}

type JournalConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"` // ephemeral, persistent
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Session     SessionConfig   `yaml:"session"`
	Dialogue    DialogueConfig  `yaml:"dialogue"`
	Recorder    RecorderConfig  `yaml:"recorder"`
	STT         STTConfig       `yaml:"stt"`
	Score       ScoreConfig     `yaml:"score"`
	Segmenter   SegmenterConfig `yaml:"segmenter"`
	Journal     JournalConfig   `yaml:"journal"`
}

func Default() Config {
	return Config{
		RuntimeName: "parla-runtime",
		Environment: "development",
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Session: SessionConfig{
			UserName: "friend",
		},
		Dialogue: DialogueConfig{
			Mode:     "mock",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-2.0-flash",
		},
		Recorder: RecorderConfig{
			Mode:              "mock",
			SampleRate:        16000,
			Channels:          1,
			WordsPerSecond:    2.0,
			MinRecordDuration: 3.0,
		},
		STT: STTConfig{
			Mode:     "mock",
			Language: "en-us",
		},
		Score: ScoreConfig{
			Mode: "aligned",
		},
		Segmenter: SegmenterConfig{
			OutputDir:     "./split_audio",
			ClearExisting: true,
		},
		Journal: JournalConfig{
			Path:          "./data/parla-reports.db",
			RetentionMode: "ephemeral",
			MaxSessions:   1000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "PARLA_RUNTIME_NAME")
	overrideString(&cfg.Environment, "PARLA_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.Telemetry.LogLevel, "PARLA_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PARLA_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PARLA_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "PARLA_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "PARLA_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "PARLA_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "PARLA_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "PARLA_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "PARLA_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "PARLA_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "PARLA_BUS_TOKEN")
	overrideInt(&cfg.Bus.ConnectTimeout, "PARLA_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Session.UserName, "PARLA_USER_NAME")
	overrideString(&cfg.Dialogue.Mode, "PARLA_DIALOGUE_MODE")
	overrideString(&cfg.Dialogue.Endpoint, "PARLA_DIALOGUE_ENDPOINT")
	overrideString(&cfg.Dialogue.Model, "PARLA_DIALOGUE_MODEL")
	overrideString(&cfg.Dialogue.APIKey, "PARLA_DIALOGUE_API_KEY")
	overrideString(&cfg.Dialogue.Command, "PARLA_DIALOGUE_COMMAND")
	overrideString(&cfg.Recorder.Mode, "PARLA_RECORDER_MODE")
	overrideString(&cfg.Recorder.Command, "PARLA_RECORDER_COMMAND")
	overrideInt(&cfg.Recorder.SampleRate, "PARLA_RECORDER_SAMPLE_RATE")
	overrideInt(&cfg.Recorder.Channels, "PARLA_RECORDER_CHANNELS")
	overrideFloat(&cfg.Recorder.WordsPerSecond, "PARLA_WORDS_PER_SECOND")
	overrideFloat(&cfg.Recorder.MinRecordDuration, "PARLA_MIN_RECORD_DURATION")
	overrideString(&cfg.STT.Mode, "PARLA_STT_MODE")
	overrideString(&cfg.STT.Command, "PARLA_STT_COMMAND")
	overrideString(&cfg.STT.ModelPath, "PARLA_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "PARLA_STT_LANGUAGE")
	overrideString(&cfg.Score.Mode, "PARLA_SCORE_MODE")
	overrideString(&cfg.Segmenter.OutputDir, "PARLA_OUTPUT_DIR")
	overrideBool(&cfg.Segmenter.ClearExisting, "PARLA_SEGMENTER_CLEAR_EXISTING")
	overrideString(&cfg.Journal.Path, "PARLA_JOURNAL_PATH")
	overrideString(&cfg.Journal.RetentionMode, "PARLA_JOURNAL_RETENTION_MODE")
	overrideInt(&cfg.Journal.MaxSessions, "PARLA_JOURNAL_MAX_SESSIONS")
	overrideBool(&cfg.Journal.VacuumOnStart, "PARLA_JOURNAL_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Dialogue.Mode {
	case "mock", "gemini", "exec":
	default:
		return errors.New("dialogue.mode must be one of mock|gemini|exec")
	}
	if cfg.Dialogue.Mode == "gemini" {
		if cfg.Dialogue.Endpoint == "" {
			return errors.New("dialogue.endpoint must be set when mode=gemini")
		}
		if cfg.Dialogue.Model == "" {
			return errors.New("dialogue.model must be set when mode=gemini")
		}
		if cfg.Dialogue.APIKey == "" {
			return errors.New("dialogue.api_key must be set when mode=gemini")
		}
	}
	if cfg.Dialogue.Mode == "exec" && cfg.Dialogue.Command == "" {
		return errors.New("dialogue.command must be set when mode=exec")
	}
	switch cfg.Recorder.Mode {
	case "mock", "exec":
	default:
		return errors.New("recorder.mode must be one of mock|exec")
	}
	if cfg.Recorder.Mode == "exec" && cfg.Recorder.Command == "" {
		return errors.New("recorder.command must be set when mode=exec")
	}
	if cfg.Recorder.SampleRate <= 0 {
		return errors.New("recorder.sample_rate must be positive")
	}
	if cfg.Recorder.Channels != 1 {
		return errors.New("recorder.channels must be 1 (recordings are mono)")
	}
	if cfg.Recorder.WordsPerSecond <= 0 {
		return errors.New("recorder.words_per_second must be positive")
	}
	if cfg.Recorder.MinRecordDuration < 0 {
		return errors.New("recorder.min_record_duration must be >= 0")
	}
	switch cfg.STT.Mode {
	case "mock", "exec":
	default:
		return errors.New("stt.mode must be one of mock|exec")
	}
	if cfg.STT.Mode == "exec" {
		if cfg.STT.Command == "" {
			return errors.New("stt.command must be set when mode=exec")
		}
		if cfg.STT.ModelPath == "" {
			return errors.New("stt.model_path must be set when mode=exec")
		}
		if _, err := os.Stat(cfg.STT.ModelPath); err != nil {
			return fmt.Errorf("stt.model_path is not accessible: %w", err)
		}
	}
	switch cfg.Score.Mode {
	case "aligned", "positional":
	default:
		return errors.New("score.mode must be one of aligned|positional")
	}
	if cfg.Segmenter.OutputDir == "" {
		return errors.New("segmenter.output_dir must not be empty")
	}
	switch cfg.Journal.RetentionMode {
	case "ephemeral", "persistent":
	default:
		return errors.New("journal.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.Journal.RetentionMode == "persistent" && cfg.Journal.Path == "" {
		return errors.New("journal.path must not be empty when retention is persistent")
	}
	if cfg.Journal.MaxSessions < 0 {
		return errors.New("journal.max_sessions must be >= 0")
	}
	return nil
}
