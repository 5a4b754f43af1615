// Package doctor runs runtime readiness diagnostics for config, credentials,
// scratch directories, the transcript store, and the speech endpoint.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/imartinez/glosa/internal/config"
	"github.com/imartinez/glosa/internal/speech"
	"github.com/imartinez/glosa/internal/store"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	pass := color.New(color.FgGreen).Sprint("OK")
	fail := color.New(color.FgRed).Sprint("FAIL")

	var b strings.Builder
	for _, check := range r.Checks {
		status := pass
		if !check.Pass {
			status = fail
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
// Quick restricts the report to local checks (config, token, credentials,
// writable dirs) so the container health probe never dials the network or
// touches the database.
func Run(ctx context.Context, cfg config.Loaded, quick bool) Report {
	checks := []Check{}

	if cfg.Exists {
		checks = append(checks, Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)})
	} else {
		checks = append(checks, Check{Name: "config", Pass: false, Message: fmt.Sprintf("config file %q not found", cfg.Path)})
	}

	checks = append(checks, checkToken(cfg.Config))
	checks = append(checks, checkCredentials(cfg.Config))
	checks = append(checks, checkWritableDir("paths.temp_audio_dir", cfg.Config.Paths.TempAudioDir))
	checks = append(checks, checkWritableDir("paths.logs_dir", cfg.Config.Paths.LogsDir))
	if quick {
		return Report{Checks: checks}
	}

	checks = append(checks, checkStore(ctx, cfg.Config))
	checks = append(checks, checkSpeechEndpoint(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkToken validates the gateway token is configured.
func checkToken(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return Check{Name: "discord.token", Pass: false, Message: "token is empty"}
	}
	return Check{Name: "discord.token", Pass: true, Message: "token is set"}
}

// checkCredentials validates the service-account key file is readable.
func checkCredentials(cfg config.Config) Check {
	path := strings.TrimSpace(cfg.Google.Credentials)
	if path == "" {
		return Check{Name: "google.credentials", Pass: false, Message: "credentials path is empty"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: "google.credentials", Pass: false, Message: fmt.Sprintf("cannot stat %q: %v", path, err)}
	}
	if info.IsDir() {
		return Check{Name: "google.credentials", Pass: false, Message: fmt.Sprintf("%q is a directory", path)}
	}
	return Check{Name: "google.credentials", Pass: true, Message: fmt.Sprintf("found %q", path)}
}

// checkWritableDir ensures the directory exists and accepts writes.
func checkWritableDir(name string, dir string) Check {
	if strings.TrimSpace(dir) == "" {
		return Check{Name: name, Pass: false, Message: "directory is not configured"}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("cannot create %q: %v", dir, err)}
	}

	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("cannot write to %q: %v", dir, err)}
	}
	_ = os.Remove(probe)

	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%q is writable", dir)}
}

// checkStore opens the transcript database when the store is enabled.
func checkStore(ctx context.Context, cfg config.Config) Check {
	if !cfg.Store.Enable {
		return Check{Name: "store", Pass: true, Message: "disabled"}
	}

	s, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return Check{Name: "store", Pass: false, Message: err.Error()}
	}
	_ = s.Close()
	return Check{Name: "store", Pass: true, Message: fmt.Sprintf("opened %q", cfg.Store.Path)}
}

// checkSpeechEndpoint dials the recognizer endpoint and waits for readiness.
func checkSpeechEndpoint(ctx context.Context, cfg config.Config) Check {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := speech.ProbeEndpoint(probeCtx, cfg.Google.SpeechEndpoint); err != nil {
		return Check{Name: "speech.endpoint", Pass: false, Message: err.Error()}
	}
	return Check{Name: "speech.endpoint", Pass: true, Message: fmt.Sprintf("%q is reachable", cfg.Google.SpeechEndpoint)}
}
