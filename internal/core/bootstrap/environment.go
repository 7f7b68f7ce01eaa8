package bootstrap

import (
	"os"
	"runtime"
	"strings"
)

// Host is the view of the machine the probes read from
type Host struct {
	GOOS     string
	Getenv   func(string) string
	Exists   func(string) bool
	ReadFile func(string) string
}

// LocalHost reads the real process environment and filesystem
func LocalHost() Host {
	return Host{
		GOOS:   runtime.GOOS,
		Getenv: os.Getenv,
		Exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		ReadFile: readFileSafe,
	}
}

// EnvironmentType is the broad category of deployment
type EnvironmentType string

const (
	EnvTypeBareMetal     EnvironmentType = "bare_metal"
	EnvTypeContainerized EnvironmentType = "containerized"
)

// ContainerRuntime names a specific container runtime
type ContainerRuntime string

const (
	RuntimeNone       ContainerRuntime = "none"
	RuntimeDocker     ContainerRuntime = "docker"
	RuntimeKubernetes ContainerRuntime = "kubernetes"
	RuntimePodman     ContainerRuntime = "podman"
	RuntimeLXC        ContainerRuntime = "lxc"
)

// cgroup markers per runtime, most specific first
var cgroupMarkers = []struct {
	runtime ContainerRuntime
	markers []string
}{
	{RuntimeKubernetes, []string{"kubepods"}},
	{RuntimePodman, []string{"libpod-", "/libpod/"}},
	{RuntimeDocker, []string{"docker-", "/docker/"}},
	{RuntimeLXC, []string{"/lxc/", "lxc.payload"}},
}

// DetectEnvironment gathers evidence about containerisation
func DetectEnvironment(h Host) []Evidence {
	var evidence []Evidence

	if host := h.Getenv("KUBERNETES_SERVICE_HOST"); host != "" {
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "orchestrator", string(RuntimeKubernetes), 0.98,
			"environment", "KUBERNETES_SERVICE_HOST set",
		).WithRaw(map[string]any{"service_host": host}))
	}
	if h.Exists("/.dockerenv") {
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "container_runtime", string(RuntimeDocker), 0.95,
			"filesystem", "/.dockerenv exists",
		))
	}
	if h.Exists("/run/.containerenv") {
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "container_runtime", string(RuntimePodman), 0.92,
			"filesystem", "/run/.containerenv exists",
		))
	}
	switch c := h.Getenv("container"); c {
	case "podman", "lxc", "docker":
		evidence = append(evidence, NewEvidence(
			CategoryEnvironment, "container_runtime", c, 0.85,
			"environment", "container="+c+" env var",
		))
	}
	if cgroup := h.ReadFile("/proc/1/cgroup"); cgroup != "" {
		for _, m := range cgroupMarkers {
			if containsAny(cgroup, m.markers) {
				evidence = append(evidence, NewEvidence(
					CategoryEnvironment, "container_runtime", string(m.runtime), 0.90,
					"procfs", "/proc/1/cgroup contains "+m.markers[0],
				))
				break
			}
		}
	}

	return append(evidence, inferEnvironmentType(evidence))
}

func inferEnvironmentType(evidence []Evidence) Evidence {
	for _, e := range evidence {
		if e.Property == "container_runtime" || e.Property == "orchestrator" {
			return NewEvidence(
				CategoryEnvironment, "environment_type", string(EnvTypeContainerized), 0.90,
				"inference", "container runtime evidence found",
			)
		}
	}
	// absence of evidence
	return NewEvidence(
		CategoryEnvironment, "environment_type", string(EnvTypeBareMetal), 0.60,
		"inference", "no container indicators detected",
	)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func readFileSafe(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
