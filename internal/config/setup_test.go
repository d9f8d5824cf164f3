package config_test

import (
	"io"
	"strings"
	"testing"

	"github.com/fakeyudi/tsync/internal/config"
)

func TestRunSetupKeepsDefaults(t *testing.T) {
	in := strings.NewReader("\n\n\n\n\n")
	got, err := config.RunSetup(in, io.Discard, config.Defaults())
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if got != config.Defaults() {
		t.Errorf("want defaults, got %+v", got)
	}
}

func TestRunSetupAnswers(t *testing.T) {
	answers := strings.Join([]string{
		"hh:mm:ss.cc",
		"/tmp/out",
		"sqlite", // rejected, asked again
		"redis",
		"10.0.0.5:6379",
		"minio",
		"play.min.io",
		"transcripts",
		"",
	}, "\n") + "\n"
	var out strings.Builder
	got, err := config.RunSetup(strings.NewReader(answers), &out, config.Defaults())
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if got.TimeFormat != "hh:mm:ss.cc" || got.OutputDir != "/tmp/out" {
		t.Errorf("basic answers: %+v", got)
	}
	if got.Store != "redis" || got.RedisAddr != "10.0.0.5:6379" {
		t.Errorf("store answers: %+v", got)
	}
	if got.Sink != "minio" || got.Minio.Endpoint != "play.min.io" || got.Minio.Bucket != "transcripts" {
		t.Errorf("sink answers: %+v", got)
	}
	if got.BridgeAddr != config.Defaults().BridgeAddr {
		t.Errorf("bridge: %q", got.BridgeAddr)
	}
	if !strings.Contains(out.String(), "please answer one of") {
		t.Error("invalid choice not re-prompted")
	}
}

func TestRunSetupTruncatedInput(t *testing.T) {
	if _, err := config.RunSetup(strings.NewReader(""), io.Discard, config.Defaults()); err == nil {
		t.Error("empty input accepted")
	}
}

func TestSaveGlobalRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if config.GlobalExists() {
		t.Fatal("config exists in a fresh home")
	}
	want := config.Defaults()
	want.OutputDir = "/srv/transcripts"
	if err := config.SaveGlobal(want); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	got, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if *got != want {
		t.Errorf("want %+v, got %+v", want, *got)
	}
}
