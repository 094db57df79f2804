package api

// RunSpec describes one orchestration run: which service to start, where it
// should become reachable, and which test-runner to execute against it.
type RunSpec struct {
	RunUuid string `json:"run_uuid"`

	// ServiceDir is the working directory the service is started in.
	ServiceDir string `json:"service_dir"`
	// ServiceCmd is the service start command, argv style.
	ServiceCmd []string `json:"service_cmd"`

	BindHost string `json:"bind_host"`
	BindPort int    `json:"bind_port"`

	// TestCmd is the external test-runner command, argv style.
	TestCmd []string `json:"test_cmd"`
	// TestDir is the working directory for the test-runner. Empty means ServiceDir.
	TestDir string `json:"test_dir"`

	// ReadyTimeoutMs bounds how long the service may take to start accepting
	// connections before the run is aborted.
	ReadyTimeoutMs int `json:"ready_timeout_ms"`
	// RunTimeoutMs bounds the whole run. Zero means no run-wide timeout.
	RunTimeoutMs int `json:"run_timeout_ms"`
}
