// Package behave parses run-spec TOML files into runnable api.RunSpec values.
package behave

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/programme-lv/harness/api"
)

// SpecService describes the service-under-test block in the run file
type SpecService struct {
	Dir     string   `toml:"dir"`
	Command []string `toml:"command"`
}

// SpecBind describes where the service is expected to listen
type SpecBind struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SpecTests describes the external test-runner block
type SpecTests struct {
	Command []string `toml:"command"`
	Dir     string   `toml:"dir"`
}

// SpecTimeouts describes the run's time bounds in milliseconds
type SpecTimeouts struct {
	ReadyMs int `toml:"ready_ms"`
	RunMs   int `toml:"run_ms"`
}

type specRoot struct {
	Service  SpecService  `toml:"service"`
	Bind     SpecBind     `toml:"bind"`
	Tests    SpecTests    `toml:"tests"`
	Timeouts SpecTimeouts `toml:"timeouts"`
}

// Parse reads a run-spec TOML file and converts it to an api.RunSpec. All
// inputs except the test-runner working directory and the run-wide timeout
// are required; there are no asserted defaults.
func Parse(path string) (api.RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunSpec{}, fmt.Errorf("failed to read run-spec file: %w", err)
	}
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return api.RunSpec{}, fmt.Errorf("failed to parse TOML: %w", err)
	}

	spec := api.RunSpec{
		ServiceDir:     root.Service.Dir,
		ServiceCmd:     root.Service.Command,
		BindHost:       root.Bind.Host,
		BindPort:       root.Bind.Port,
		TestCmd:        root.Tests.Command,
		TestDir:        root.Tests.Dir,
		ReadyTimeoutMs: root.Timeouts.ReadyMs,
		RunTimeoutMs:   root.Timeouts.RunMs,
	}
	if err := Validate(spec); err != nil {
		return api.RunSpec{}, err
	}
	return spec, nil
}

// Validate rejects a run spec with any required input missing.
func Validate(spec api.RunSpec) error {
	if spec.ServiceDir == "" {
		return fmt.Errorf("run spec is missing service dir")
	}
	if len(spec.ServiceCmd) == 0 {
		return fmt.Errorf("run spec is missing service command")
	}
	if spec.BindHost == "" {
		return fmt.Errorf("run spec is missing bind host")
	}
	if spec.BindPort <= 0 || spec.BindPort > 65535 {
		return fmt.Errorf("run spec has invalid bind port %d", spec.BindPort)
	}
	if len(spec.TestCmd) == 0 {
		return fmt.Errorf("run spec is missing test command")
	}
	if spec.ReadyTimeoutMs <= 0 {
		return fmt.Errorf("run spec is missing readiness timeout")
	}
	return nil
}
