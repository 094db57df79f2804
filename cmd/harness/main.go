package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/artifact"
	"github.com/programme-lv/harness/internal/behave"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/gatherer/natsgath"
	"github.com/programme-lv/harness/internal/gatherer/respbuilder"
	"github.com/programme-lv/harness/internal/gatherer/sloggath"
	"github.com/programme-lv/harness/internal/orch"
	"github.com/programme-lv/harness/internal/ready"
	"github.com/programme-lv/harness/internal/reclaim"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/programme-lv/harness/internal/service"
)

func main() {
	cmd := &cli.Command{
		Name:  "harness",
		Usage: "run an external test suite against a locally launched service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spec", Usage: "run-spec TOML file; individual flags override its values"},
			&cli.StringFlag{Name: "service-dir", Usage: "working directory of the service-under-test"},
			&cli.StringFlag{Name: "service-cmd", Usage: "service start command (run through /bin/sh -c)"},
			&cli.StringFlag{Name: "host", Usage: "host the service binds to"},
			&cli.IntFlag{Name: "port", Usage: "TCP port the service binds to"},
			&cli.StringFlag{Name: "test-cmd", Usage: "test-runner command (run through /bin/sh -c)"},
			&cli.StringFlag{Name: "test-dir", Usage: "working directory for the test-runner (defaults to service dir)"},
			&cli.DurationFlag{Name: "ready-timeout", Usage: "how long the service may take to accept connections"},
			&cli.DurationFlag{Name: "run-timeout", Usage: "bound on the whole run; 0 disables it"},
			&cli.StringFlag{Name: "nats-url", Usage: "publish run progress to this NATS server"},
			&cli.StringFlag{Name: "nats-subject", Usage: "NATS subject for run progress", Value: "harness.runs"},
			&cli.StringFlag{Name: "artifact-dir", Usage: "write a compressed transcript of captured runner output here"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug-level transcript"},
		},
		Action: runAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		cli.HandleExitCoder(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(api.HarnessFailureExitCode)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))

	env := environment.ReadEnvConfig()

	spec, err := buildSpec(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), api.HarnessFailureExitCode)
	}
	spec.RunUuid = uuid.New().String()

	builder := respbuilder.New(spec.RunUuid)
	gatherers := []orch.ProgressGatherer{sloggath.New(logger, spec.RunUuid), builder}

	natsURL := cmd.String("nats-url")
	if natsURL == "" {
		natsURL = env.NatsURL
	}
	natsSubject := cmd.String("nats-subject")
	if env.NatsSubject != "" && !cmd.IsSet("nats-subject") {
		natsSubject = env.NatsSubject
	}
	if natsURL != "" {
		nc, err := nats.Connect(natsURL)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to connect to NATS at %s: %v", natsURL, err), api.HarnessFailureExitCode)
		}
		defer nc.Drain()
		gatherers = append(gatherers, natsgath.New(nc, spec.RunUuid, natsSubject, logger))
	}

	reclaimer := reclaim.New(logger)
	manager := service.NewManager(logger, reclaimer)
	orchestrator := orch.New(logger, orch.Combine(gatherers...), reclaimer, manager, ready.AwaitTCP, runner.Run)

	artifactDir := cmd.String("artifact-dir")
	if artifactDir == "" {
		artifactDir = env.ArtifactDir
	}
	if artifactDir != "" {
		orchestrator.SetServiceLogPath(filepath.Join(artifactDir, fmt.Sprintf("%s.service.log", spec.RunUuid)))
		if err := os.MkdirAll(artifactDir, 0755); err != nil {
			return cli.Exit(fmt.Sprintf("failed to create artifact dir: %v", err), api.HarnessFailureExitCode)
		}
	}

	// Interrupts abort the run but still flow through teardown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := orchestrator.Execute(ctx, spec)

	orch.PrintSummary(os.Stdout, summary)
	if done := builder.Summary(); done != nil {
		logger.Info("run finished", "status", string(done.Status), "elapsed", builder.Elapsed())
	}

	if outcome := builder.Outcome(); artifactDir != "" && outcome != nil {
		// Stdout/stderr were captured during Testing; persist them now.
		if path, err := artifact.WriteTranscript(artifactDir, spec.RunUuid, *outcome); err != nil {
			logger.Warn("failed to write transcript artifact", "error", err)
		} else {
			logger.Info("transcript artifact written", "path", path)
		}
	}

	if summary.ExitCode != 0 {
		return cli.Exit("", summary.ExitCode)
	}
	return nil
}

// buildSpec merges the run-spec file and individual flags into one validated
// spec. Flags win over the file, matching the usual precedence.
func buildSpec(cmd *cli.Command) (api.RunSpec, error) {
	var spec api.RunSpec
	if path := cmd.String("spec"); path != "" {
		parsed, err := behave.Parse(path)
		if err != nil {
			return api.RunSpec{}, err
		}
		spec = parsed
	}

	if v := cmd.String("service-dir"); v != "" {
		spec.ServiceDir = v
	}
	if v := cmd.String("service-cmd"); v != "" {
		spec.ServiceCmd = []string{"/bin/sh", "-c", v}
	}
	if v := cmd.String("host"); v != "" {
		spec.BindHost = v
	}
	if v := int(cmd.Int("port")); v != 0 {
		spec.BindPort = v
	}
	if v := cmd.String("test-cmd"); v != "" {
		spec.TestCmd = []string{"/bin/sh", "-c", v}
	}
	if v := cmd.String("test-dir"); v != "" {
		spec.TestDir = v
	}
	if v := cmd.Duration("ready-timeout"); v > 0 {
		spec.ReadyTimeoutMs = int(v / time.Millisecond)
	}
	if v := cmd.Duration("run-timeout"); v > 0 {
		spec.RunTimeoutMs = int(v / time.Millisecond)
	}

	if err := behave.Validate(spec); err != nil {
		return api.RunSpec{}, err
	}
	return spec, nil
}
