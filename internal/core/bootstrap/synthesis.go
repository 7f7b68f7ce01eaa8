package bootstrap

import (
	"fmt"

	"roadviz/internal/config"
)

// minWindowMemoryMB is the memory below which an interactive window is not offered
const minWindowMemoryMB = 256

// Recommendation is the synthesized render mode with its rationale
type Recommendation struct {
	Mode       config.Mode
	Confidence float64
	Reasons    []string
	Warnings   []string
}

// Recommend folds the evidence into a window or headless recommendation.
// A window is recommended only when a display server is present and the host
// has enough memory to drive it.
func Recommend(es *EvidenceSet) Recommendation {
	var rec Recommendation

	display, displayConf := es.boolValue(CategoryDisplay, "available")
	server := es.stringValue(CategoryDisplay, "server", "")
	envType := es.stringValue(CategoryEnvironment, "environment_type", string(EnvTypeBareMetal))
	mem := effectiveMemory(es)

	if display {
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("Display server detected: %s", server))
	} else {
		rec.Reasons = append(rec.Reasons, "No display server detected")
	}

	switch {
	case mem > 0:
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("Memory: %dMB", mem))
	default:
		rec.Reasons = append(rec.Reasons, "Could not determine available memory")
	}

	if envType == string(EnvTypeContainerized) {
		rt := es.stringValue(CategoryEnvironment, "orchestrator",
			es.stringValue(CategoryEnvironment, "container_runtime", "unknown"))
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("Running in container (%s)", rt))
	}

	if remote, _ := es.boolValue(CategoryDisplay, "remote_session"); remote && display {
		rec.Warnings = append(rec.Warnings, "Remote session with forwarded display; frame rate may be low")
	}
	if cores := es.intValue(CategoryResources, "cpu_cores", 0); cores == 1 {
		rec.Warnings = append(rec.Warnings, "Single CPU core; traversal and drawing share it")
	}

	if !display || (mem > 0 && mem < minWindowMemoryMB) {
		if display {
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("Low memory: %dMB < %dMB for a window", mem, minWindowMemoryMB))
		}
		rec.Mode = config.ModeHeadless
		rec.Confidence = 0.90
		return rec
	}

	rec.Mode = config.ModeWindow
	rec.Confidence = es.AggregateConfidence(CategoryDisplay, "available")
	if rec.Confidence == 0 {
		rec.Confidence = displayConf
	}
	if envType == string(EnvTypeContainerized) {
		// forwarded sockets into containers are often unusable
		rec.Confidence -= 0.2
	}
	if mem == 0 {
		rec.Confidence -= 0.1
	}
	if rec.Confidence > 0.95 {
		rec.Confidence = 0.95
	}
	return rec
}

func effectiveMemory(es *EvidenceSet) int {
	if limit := es.intValue(CategoryResources, "memory_limit_mb", 0); limit > 0 {
		return limit
	}
	return es.intValue(CategoryResources, "memory_mb", 0)
}
