package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/tsync/internal/timecode"
)

// GlobalPath returns the path of the global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tsync", "config.json"), nil
}

// GlobalExists reports whether a global config file is present on disk.
func GlobalExists() bool {
	p, err := GlobalPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// SaveGlobal writes cfg to the global config file, creating the config
// directory if needed.
func SaveGlobal(cfg Config) error {
	p, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard, reading answers from in and
// writing prompts to out. Each prompt defaults to the value in existing.
func RunSetup(in io.Reader, out io.Writer, existing Config) (Config, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askChoice := func(prompt, defaultVal string, choices ...string) (string, error) {
		for {
			ans, err := ask(fmt.Sprintf("%s (%s)", prompt, strings.Join(choices, "/")), defaultVal)
			if err != nil {
				return "", err
			}
			for _, c := range choices {
				if strings.EqualFold(ans, c) {
					return c, nil
				}
			}
			fmt.Fprintf(out, "  please answer one of: %s\n", strings.Join(choices, ", "))
		}
	}

	cfg := existing

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │    tsync — first-time setup     │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	cfg.TimeFormat, err = askChoice("  Time format", cfg.TimeFormat,
		timecode.MinutesMillis.String(), timecode.HoursCentis.String())
	if err != nil {
		return Config{}, err
	}

	cfg.OutputDir, err = ask("  Download directory", cfg.OutputDir)
	if err != nil {
		return Config{}, err
	}

	cfg.Store, err = askChoice("  Save edited transcripts in", cfg.Store, "disk", "redis", "mysql")
	if err != nil {
		return Config{}, err
	}
	switch cfg.Store {
	case "redis":
		if cfg.RedisAddr, err = ask("  Redis address", cfg.RedisAddr); err != nil {
			return Config{}, err
		}
	case "mysql":
		if cfg.MySQLDSN, err = ask("  MySQL DSN", cfg.MySQLDSN); err != nil {
			return Config{}, err
		}
	}

	cfg.Sink, err = askChoice("  Downloads go to", cfg.Sink, "file", "minio")
	if err != nil {
		return Config{}, err
	}
	if cfg.Sink == "minio" {
		if cfg.Minio.Endpoint, err = ask("  MinIO endpoint", cfg.Minio.Endpoint); err != nil {
			return Config{}, err
		}
		if cfg.Minio.Bucket, err = ask("  MinIO bucket", cfg.Minio.Bucket); err != nil {
			return Config{}, err
		}
	}

	cfg.BridgeAddr, err = ask("  Player bridge address", cfg.BridgeAddr)
	if err != nil {
		return Config{}, err
	}

	fmt.Fprintln(out)
	return cfg, nil
}
