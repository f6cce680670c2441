package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Recorder.SampleRate != 16000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Recorder.SampleRate)
	}
	if cfg.Score.Mode != "aligned" {
		t.Fatalf("expected aligned score mode, got %s", cfg.Score.Mode)
	}
	if cfg.Segmenter.OutputDir == "" || !cfg.Segmenter.ClearExisting {
		t.Fatalf("unexpected segmenter defaults: %+v", cfg.Segmenter)
	}
	if cfg.Bus.Enabled {
		t.Fatal("bus should be disabled by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PARLA_USER_NAME", "Dana")
	t.Setenv("PARLA_WORDS_PER_SECOND", "2.5")
	t.Setenv("PARLA_MIN_RECORD_DURATION", "1.5")
	t.Setenv("PARLA_RECORDER_SAMPLE_RATE", "44100")
	t.Setenv("PARLA_OUTPUT_DIR", "./clips")
	t.Setenv("PARLA_SCORE_MODE", "positional")
	t.Setenv("PARLA_JOURNAL_RETENTION_MODE", "persistent")
	t.Setenv("PARLA_JOURNAL_PATH", "./reports.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.UserName != "Dana" {
		t.Fatalf("expected user name override, got %s", cfg.Session.UserName)
	}
	if cfg.Recorder.WordsPerSecond != 2.5 {
		t.Fatalf("expected words per second override, got %v", cfg.Recorder.WordsPerSecond)
	}
	if cfg.Recorder.MinRecordDuration != 1.5 {
		t.Fatalf("expected min duration override, got %v", cfg.Recorder.MinRecordDuration)
	}
	if cfg.Recorder.SampleRate != 44100 {
		t.Fatalf("expected sample rate override, got %d", cfg.Recorder.SampleRate)
	}
	if cfg.Segmenter.OutputDir != "./clips" {
		t.Fatalf("expected output dir override, got %s", cfg.Segmenter.OutputDir)
	}
	if cfg.Score.Mode != "positional" {
		t.Fatalf("expected score mode override, got %s", cfg.Score.Mode)
	}
	if cfg.Journal.RetentionMode != "persistent" || cfg.Journal.Path != "./reports.db" {
		t.Fatalf("expected journal overrides, got %+v", cfg.Journal)
	}
}

func TestValidateRejectsBadSpeakingRate(t *testing.T) {
	t.Setenv("PARLA_WORDS_PER_SECOND", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero words per second")
	}
}

func TestValidateRejectsStereoRecorder(t *testing.T) {
	t.Setenv("PARLA_RECORDER_CHANNELS", "2")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for stereo recorder")
	}
}

func TestValidateRejectsMissingModelPath(t *testing.T) {
	t.Setenv("PARLA_STT_MODE", "exec")
	t.Setenv("PARLA_STT_COMMAND", "recognize")
	t.Setenv("PARLA_STT_MODEL_PATH", filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing model path")
	}
}

func TestValidateAcceptsExistingModelPath(t *testing.T) {
	t.Setenv("PARLA_STT_MODE", "exec")
	t.Setenv("PARLA_STT_COMMAND", "recognize")
	t.Setenv("PARLA_STT_MODEL_PATH", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STT.Mode != "exec" {
		t.Fatalf("expected exec stt mode, got %s", cfg.STT.Mode)
	}
}

func TestValidateRejectsUnknownScoreMode(t *testing.T) {
	t.Setenv("PARLA_SCORE_MODE", "fuzzy")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown score mode")
	}
}
