package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"deploybot/internal/domain/entity"
	"deploybot/internal/infrastructure/metrics"
)

// ValidationResult carries structural validation findings. Errors are
// human-readable strings; the caller decides whether they are fatal.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks presence and shape of the required document sections. It
// never consults the marketplace and never panics: a document that fails to
// parse yields a single error entry.
func Validate(docText string) ValidationResult {
	var doc Document
	if err := yaml.Unmarshal([]byte(docText), &doc); err != nil {
		metrics.IncManifestValidation("parse_error")
		return ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("document parse failed: %v", err)}}
	}

	var errs []string

	if len(doc.Services) == 0 {
		errs = append(errs, "services: at least one service is required")
	}
	for name, svc := range doc.Services {
		if svc.Image == "" {
			errs = append(errs, fmt.Sprintf("services.%s: image is required", name))
		}
		for i, exp := range svc.Expose {
			if exp.Port <= 0 || exp.Port > 65535 {
				errs = append(errs, fmt.Sprintf("services.%s.expose[%d]: invalid port %d", name, i, exp.Port))
			}
		}
	}

	if len(doc.Profiles.Compute) == 0 {
		errs = append(errs, "profiles.compute: at least one compute profile is required")
	}
	for name, prof := range doc.Profiles.Compute {
		res := prof.Resources
		if res.CPU.Units <= 0 {
			errs = append(errs, fmt.Sprintf("profiles.compute.%s: cpu units must be positive", name))
		}
		if res.Memory.Size == "" {
			errs = append(errs, fmt.Sprintf("profiles.compute.%s: memory size is required", name))
		}
		if len(res.Storage) == 0 {
			errs = append(errs, fmt.Sprintf("profiles.compute.%s: storage is required", name))
		}
		if res.GPU != nil && res.GPU.Units <= 0 {
			errs = append(errs, fmt.Sprintf("profiles.compute.%s: gpu units must be positive", name))
		}
	}

	if doc.Profiles.Duration == "" {
		errs = append(errs, "profiles.duration: duration is required")
	}

	if len(doc.Profiles.Placement) == 0 {
		errs = append(errs, "profiles.placement: at least one placement region is required")
	}
	for region, placement := range doc.Profiles.Placement {
		if len(placement.Pricing) == 0 {
			errs = append(errs, fmt.Sprintf("profiles.placement.%s: pricing is required", region))
		}
		for name, price := range placement.Pricing {
			if price.Token != entity.PricingToken {
				errs = append(errs, fmt.Sprintf("profiles.placement.%s.pricing.%s: token must be %s", region, name, entity.PricingToken))
			}
			if price.Amount <= 0 {
				errs = append(errs, fmt.Sprintf("profiles.placement.%s.pricing.%s: amount must be positive", region, name))
			}
		}
	}

	if len(doc.Deployment) == 0 {
		errs = append(errs, "deployment: at least one deployment entry is required")
	}
	for name, regions := range doc.Deployment {
		for region, cell := range regions {
			if cell.Profile == "" {
				errs = append(errs, fmt.Sprintf("deployment.%s.%s: profile reference is required", name, region))
			}
			if cell.Count <= 0 {
				errs = append(errs, fmt.Sprintf("deployment.%s.%s: count must be positive", name, region))
			}
		}
	}

	if len(errs) > 0 {
		metrics.IncManifestValidation("invalid")
		return ValidationResult{Valid: false, Errors: errs}
	}
	metrics.IncManifestValidation("valid")
	return ValidationResult{Valid: true}
}
