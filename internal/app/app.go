// Package app wires configuration, logging, and commands into the runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imartinez/glosa/internal/cli"
	"github.com/imartinez/glosa/internal/config"
	"github.com/imartinez/glosa/internal/discord"
	"github.com/imartinez/glosa/internal/doctor"
	"github.com/imartinez/glosa/internal/ipc"
	"github.com/imartinez/glosa/internal/logging"
	"github.com/imartinez/glosa/internal/pipeline"
	"github.com/imartinez/glosa/internal/speech"
	"github.com/imartinez/glosa/internal/store"
	"github.com/imartinez/glosa/internal/translate"
	"github.com/imartinez/glosa/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("glosa"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("glosa"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	if parsed.Command == cli.CommandStatus {
		return r.commandStatus(ctx)
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
	}

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, parsed.Quick)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.GuildID)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandStatus queries the running bot over the control socket.
func (r Runner) commandStatus(ctx context.Context) int {
	socketPath := ipc.SocketPath()

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: "status"}, 500*time.Millisecond)
	if err != nil {
		if ipc.IsSocketMissing(err) || ipc.IsConnectionRefused(err) {
			fmt.Fprintln(r.Stderr, "error: glosa is not running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return 1
	}

	fmt.Fprintln(r.Stdout, resp.State)
	for guildID, state := range resp.Sessions {
		fmt.Fprintf(r.Stdout, "guild %s: %s\n", guildID, state)
	}
	return 0
}

// commandHistory prints recent transcripts for a guild from the local store.
func (r Runner) commandHistory(ctx context.Context, cfg config.Config, guildID string) int {
	if strings.TrimSpace(guildID) == "" {
		fmt.Fprintln(r.Stderr, "error: history requires --guild ID")
		return 2
	}
	if !cfg.Store.Enable {
		fmt.Fprintln(r.Stderr, "error: transcript store is disabled")
		return 1
	}

	s, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	transcripts, err := s.Recent(ctx, guildID, 20)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(transcripts) == 0 {
		fmt.Fprintln(r.Stdout, "no transcripts recorded")
		return 0
	}

	for _, t := range transcripts {
		line := fmt.Sprintf("[%s] %s", t.CreatedAt.Format(time.RFC3339), t.UserName)
		if t.Language != "" {
			line += " (" + t.Language + ")"
		}
		line += ": " + t.Text
		if t.Translation != "" {
			line += " -> " + t.Translation
		}
		fmt.Fprintln(r.Stdout, line)
	}
	return 0
}

// commandRun connects to Discord and serves until the context ends.
func (r Runner) commandRun(ctx context.Context, cfgLoaded config.Loaded) int {
	cfg := cfgLoaded.Config

	if strings.TrimSpace(cfg.Discord.Token) == "" {
		fmt.Fprintln(r.Stderr, "error: discord.token is not configured")
		return 1
	}

	logRuntime, err := logging.New(logging.Options{
		Dir:        cfg.Paths.LogsDir,
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}
	for _, w := range cfgLoaded.Warnings {
		logger.Warn("config warning", "message", w.Message)
	}
	logger.Info("starting",
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"version", version.String(),
	)

	socketPath := ipc.SocketPath()
	listener, err := ipc.Acquire(ctx, socketPath, 250*time.Millisecond, 4)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: glosa is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	var archiver pipeline.Archiver
	var history discord.HistoryProvider
	if cfg.Store.Enable {
		s, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = s.Close() }()
		archiver = s
		history = s
	}

	speechPhrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var speechDump *os.File
	if cfg.Debug.SpeechDump {
		speechDump, err = createSpeechDump(cfg.Paths.TempAudioDir)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = speechDump.Close() }()
	}

	recognizer, err := speech.NewClient(ctx, speech.ClientConfig{
		CredentialsFile:      cfg.Google.Credentials,
		Language:             cfg.Speech.Language,
		Alternatives:         cfg.Speech.Alternatives,
		SampleRate:           cfg.Speech.SampleRate,
		AutomaticPunctuation: cfg.Speech.Punctuation,
		Model:                cfg.Speech.Model,
		Phrases:              speechPhrases,
		DebugResponseSink:    sinkOrNil(speechDump),
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = recognizer.Close() }()

	var translator pipeline.Translator
	if cfg.Translate.Enable {
		t, err := translate.New(ctx, cfg.Google.Credentials, cfg.Translate.Targets)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = t.Close() }()
		translator = t
	}

	bot, err := discord.New(cfg, logger, recognizer, translator, archiver, history)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, statusHandler(bot))
	}()

	if err := bot.Open(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("connected to discord", "socket", socketPath)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := bot.Close(); err != nil {
		logger.Error("gateway close failed", "error", err.Error())
	}

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	return 0
}

// statusHandler serves control socket commands against the live bot.
func statusHandler(bot *discord.Bot) ipc.Handler {
	return ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		switch req.Command {
		case "status":
			return ipc.Response{
				OK:       true,
				State:    bot.Registry().Summary(),
				Sessions: bot.Registry().States(),
			}
		default:
			return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command: %s", req.Command)}
		}
	})
}

// createSpeechDump opens a timestamped JSONL sink for raw API responses.
func createSpeechDump(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create speech dump dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("speech-%s.jsonl", timestamp))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open speech dump %q: %w", path, err)
	}
	return file, nil
}

// sinkOrNil avoids a typed-nil io.Writer when debugging is off.
func sinkOrNil(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}
