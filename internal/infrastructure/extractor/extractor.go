package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"deploybot/internal/domain/entity"
)

// Extract runs the regex pattern rules over free text and returns a partial
// ParameterSet. Absence of a match leaves the field unset; no rule ever
// raises. Duration parsing runs before amount calculation because the amount
// derives from the normalized duration.
func Extract(text string) entity.ParameterSet {
	lower := strings.ToLower(text)

	var params entity.ParameterSet

	extractCPU(lower, &params)
	extractMemory(lower, &params)
	extractStorage(lower, &params)
	extractGPU(lower, &params)
	extractDuration(lower, &params)
	extractRegion(lower, &params)
	applyWorkloadShortcut(lower, &params)

	// Amount is always computed, falling back to the 2h default when no
	// duration was found, so it is never reported missing downstream.
	params.Amount = float64(entity.RatePerHour) * durationHours(params.Duration)

	return params
}

var (
	cpuRe     = regexp.MustCompile(`(\d+)\s*(?:cores?|cpus?|processors?)\b`)
	memoryRe  = regexp.MustCompile(`(\d+)\s*(gib|gb|g|mib|mb|m)\b\s*(?:of\s+)?(?:ram|memory)`)
	storageRe = regexp.MustCompile(`(\d+)\s*(tib|tb|t|gib|gb|g)\b\s*(?:of\s+)?(?:storage|disk|space)`)

	gpuModelRe   = regexp.MustCompile(`\b(a100|h100|v100|t4)\b`)
	gpuRTXRe     = regexp.MustCompile(`\b(?:rtx|gtx)\s*(\d{4})(?:[\s-]*(ada))?\b`)
	gpuGenericRe = regexp.MustCompile(`\b(?:nvidia|rtx|gtx)\b`)
	gpuCountRe   = regexp.MustCompile(`\b(\d+)\s*(?:x\s*)?(?:[a-z][a-z0-9-]*\s+)?gpus?\b`)

	durationRe = regexp.MustCompile(`(\d+)\s*(hours?|hrs?|days?|weeks?|months?)\b`)
)

func extractCPU(text string, params *entity.ParameterSet) {
	if m := cpuRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			params.CPUUnits = n
		}
	}
}

func extractMemory(text string, params *entity.ParameterSet) {
	if m := memoryRe.FindStringSubmatch(text); m != nil {
		params.MemorySize = m[1] + binarySuffix(m[2])
	}
}

func extractStorage(text string, params *entity.ParameterSet) {
	if m := storageRe.FindStringSubmatch(text); m != nil {
		params.StorageSize = m[1] + binarySuffix(m[2])
	}
}

// binarySuffix maps any input unit letter onto the binary-prefix convention:
// GB/G -> Gi, MB/M -> Mi, TB/T -> Ti, regardless of casing.
func binarySuffix(unit string) string {
	switch unit[0] {
	case 'g':
		return "Gi"
	case 'm':
		return "Mi"
	case 't':
		return "Ti"
	}
	return "Gi"
}

func extractGPU(text string, params *entity.ParameterSet) {
	model := ""
	if m := gpuModelRe.FindStringSubmatch(text); m != nil {
		model = m[1]
	} else if m := gpuRTXRe.FindStringSubmatch(text); m != nil {
		switch {
		case m[1] == "4090":
			model = "rtx4090"
		case m[1] == "6000":
			model = entity.DefaultGPUModel
		default:
			// Unrecognized rtx/gtx number.
			model = entity.DefaultGPUModel
		}
	} else if gpuGenericRe.MatchString(text) {
		model = entity.DefaultGPUModel
	}

	if model == "" {
		// A bare count ("2 gpus") without any model keyword never implies a
		// GPU field.
		return
	}

	units := 1
	if m := gpuCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			units = n
		}
	}

	params.GPU = &entity.GPUSpec{Units: units, Model: model}
}

func extractDuration(text string, params *entity.ParameterSet) {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return
	}
	switch m[2][0] {
	case 'h':
		params.Duration = fmt.Sprintf("%dh", n)
	case 'd':
		params.Duration = fmt.Sprintf("%dd", n)
	case 'w':
		params.Duration = fmt.Sprintf("%dd", n*7)
	default:
		params.Duration = fmt.Sprintf("%dmon", n)
	}
}

// durationHours converts a canonical duration string to hours using the fixed
// conversions day=24h, month=30d. Unset or unparseable input falls back to 2h.
func durationHours(duration string) float64 {
	if duration == "" {
		return 2
	}
	var unit string
	switch {
	case strings.HasSuffix(duration, "mon"):
		unit = "mon"
	case strings.HasSuffix(duration, "h"):
		unit = "h"
	case strings.HasSuffix(duration, "d"):
		unit = "d"
	default:
		return 2
	}
	n, err := strconv.Atoi(strings.TrimSuffix(duration, unit))
	if err != nil || n <= 0 {
		return 2
	}
	switch unit {
	case "h":
		return float64(n)
	case "d":
		return float64(n) * 24
	default:
		return float64(n) * 24 * 30
	}
}

// regionKeywords covers west and east coast spellings plus common cloud
// region names. Every entry collapses to the west-coast canonical value;
// callers depend on that narrowing (see ParameterSet region constants).
var regionKeywords = []string{
	"westcoast", "west coast", "us-west", "uswest",
	"eastcoast", "east coast", "us-east", "useast",
	"eu-west", "euwest", "california", "oregon", "virginia",
}

func extractRegion(text string, params *entity.ParameterSet) {
	for _, kw := range regionKeywords {
		if strings.Contains(text, kw) {
			params.Region = entity.RegionWestCoast
			return
		}
	}
}

// applyWorkloadShortcut force-fills the service definition when the text asks
// for a notebook workload. The service name literal is set only because the
// forced image reference contains "jupyter"; any other image leaves the name
// for the renderer to default.
func applyWorkloadShortcut(text string, params *entity.ParameterSet) {
	if !strings.Contains(text, "jupyter") && !strings.Contains(text, "notebook") {
		return
	}
	params.Image = entity.DefaultImage
	params.Env = map[string]string{entity.DefaultEnvKey: entity.DefaultEnvValue}
	params.Ports = entity.DefaultPorts()
	if strings.Contains(params.Image, "jupyter") {
		params.Name = entity.DefaultServiceName
	}
}
