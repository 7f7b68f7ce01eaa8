package bootstrap

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"roadviz/internal/config"
)

// Result contains all bootstrap findings
type Result struct {
	Timestamp      time.Time
	Duration       time.Duration
	Evidence       *EvidenceSet
	Recommendation Recommendation
}

// Run probes the local host
func Run(ctx context.Context, log zerolog.Logger) (*Result, error) {
	return RunOn(ctx, LocalHost(), log)
}

// RunOn executes the probe phases against h and synthesizes a recommendation
func RunOn(ctx context.Context, h Host, log zerolog.Logger) (*Result, error) {
	start := time.Now()
	log.Debug().Msg("probing render capabilities")

	evidence := NewEvidenceSet()
	phases := []struct {
		name   string
		detect func(Host) []Evidence
	}{
		{"environment", DetectEnvironment},
		{"display", DetectDisplay},
		{"resources", DetectResources},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := p.detect(h)
		evidence.AddAll(found)
		log.Debug().Str("phase", p.name).Int("evidence", len(found)).Msg("probe phase complete")
	}

	rec := Recommend(evidence)
	duration := time.Since(start)

	log.Info().
		Str("mode", string(rec.Mode)).
		Float64("confidence", rec.Confidence).
		Int("evidence", evidence.Count()).
		Dur("duration", duration).
		Msg("render mode recommended")
	for _, r := range rec.Reasons {
		log.Debug().Msg(r)
	}
	for _, w := range rec.Warnings {
		log.Warn().Msg(w)
	}

	return &Result{
		Timestamp:      time.Now(),
		Duration:       duration,
		Evidence:       evidence,
		Recommendation: rec,
	}, nil
}

// ToConfigBootstrap converts the result into its persisted form
func (r *Result) ToConfigBootstrap() *config.BootstrapResult {
	es := r.Evidence

	envType, envConf, ok := es.BestValue(CategoryEnvironment, "environment_type")
	if !ok {
		envType, envConf = "unknown", 0.5
	}
	runtimeStr := es.stringValue(CategoryEnvironment, "orchestrator",
		es.stringValue(CategoryEnvironment, "container_runtime", string(RuntimeNone)))
	available, _ := es.boolValue(CategoryDisplay, "available")

	return &config.BootstrapResult{
		Timestamp: r.Timestamp,
		Environment: config.EnvironmentInfo{
			Type:       envType.(string),
			Runtime:    runtimeStr,
			Confidence: envConf,
		},
		Display: config.DisplayInfo{
			Available: available,
			Server:    es.stringValue(CategoryDisplay, "server", ""),
		},
		Resources: config.ResourceInfo{
			CPUCores:     es.intValue(CategoryResources, "cpu_cores", runtime.NumCPU()),
			MemoryMB:     effectiveMemory(es),
			Architecture: es.stringValue(CategoryResources, "architecture", runtime.GOARCH),
			OS:           es.stringValue(CategoryResources, "os", runtime.GOOS),
		},
		Recommendation: config.ModeRecommendation{
			Mode:       r.Recommendation.Mode,
			Confidence: r.Recommendation.Confidence,
			Reasons:    r.Recommendation.Reasons,
		},
	}
}
