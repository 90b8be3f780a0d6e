package manifest

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"deploybot/internal/domain/entity"
	"deploybot/internal/infrastructure/metrics"
)

// Update applies the fields present in params as a sparse patch over an
// existing document. Only the first service, compute profile, placement
// region and deployment entry are patched — multi-service documents are not
// supported, and "first" means first in sorted key order so repeated updates
// are deterministic. The pricing token is reset to the marketplace constant
// on every update. If the existing document fails to parse, the patch is
// abandoned and a fresh document is rendered from params alone.
func Update(existing string, params entity.ParameterSet) (string, error) {
	var doc Document
	if err := yaml.Unmarshal([]byte(existing), &doc); err != nil {
		metrics.IncError("manifest", "update_parse")
		return Render(params)
	}
	if len(doc.Services) == 0 {
		metrics.IncError("manifest", "update_empty")
		return Render(params)
	}

	name := firstKey(doc.Services)
	if params.Name != "" && params.Name != name {
		renameService(&doc, name, params.Name)
		name = params.Name
	}

	svc := doc.Services[name]
	if params.Image != "" {
		svc.Image = params.Image
	}
	if params.PullPolicy != "" {
		svc.PullPolicy = params.PullPolicy
	}
	if len(params.Ports) > 0 {
		svc.Expose = exposeList(params.Ports)
	}
	if len(params.Env) > 0 {
		svc.Env = envList(params.Env)
	}
	doc.Services[name] = svc

	if params.Duration != "" {
		doc.Profiles.Duration = params.Duration
	}
	if params.Mode != "" {
		doc.Profiles.Mode = params.Mode
	}

	if len(doc.Profiles.Compute) > 0 {
		profKey := firstKey(doc.Profiles.Compute)
		prof := doc.Profiles.Compute[profKey]
		if params.CPUUnits > 0 {
			prof.Resources.CPU.Units = params.CPUUnits
		}
		if params.MemorySize != "" {
			prof.Resources.Memory.Size = params.MemorySize
		}
		if params.StorageSize != "" {
			prof.Resources.Storage = []StorageMount{{Size: params.StorageSize}}
		}
		if params.GPU != nil {
			prof.Resources.GPU = gpuResource(params.GPU)
		}
		doc.Profiles.Compute[profKey] = prof
	}

	if len(doc.Profiles.Placement) > 0 {
		region := firstKey(doc.Profiles.Placement)
		if params.Region != "" && params.Region != region {
			doc.Profiles.Placement[params.Region] = doc.Profiles.Placement[region]
			delete(doc.Profiles.Placement, region)
			region = params.Region
		}
		placement := doc.Profiles.Placement[region]
		if len(placement.Pricing) > 0 {
			priceKey := firstKey(placement.Pricing)
			price := placement.Pricing[priceKey]
			if params.Amount > 0 {
				price.Amount = params.Amount
			}
			// Token is a marketplace constant; forced even when not requested.
			price.Token = entity.PricingToken
			placement.Pricing[priceKey] = price
		}
		doc.Profiles.Placement[region] = placement
	}

	if len(doc.Deployment) > 0 {
		depKey := firstKey(doc.Deployment)
		regions := doc.Deployment[depKey]
		if len(regions) > 0 {
			regionKey := firstKey(regions)
			if params.Region != "" && params.Region != regionKey {
				regions[params.Region] = regions[regionKey]
				delete(regions, regionKey)
				regionKey = params.Region
			}
			cell := regions[regionKey]
			if params.Replicas > 0 {
				cell.Count = params.Replicas
			}
			regions[regionKey] = cell
		}
		doc.Deployment[depKey] = regions
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		metrics.IncError("manifest", "update_marshal")
		return "", fmt.Errorf("marshal updated document: %w", err)
	}
	return string(out), nil
}

// renameService moves every map entry keyed by the old service name onto the
// new one, including the profile references inside deployment cells.
func renameService(doc *Document, oldName, newName string) {
	if svc, ok := doc.Services[oldName]; ok {
		doc.Services[newName] = svc
		delete(doc.Services, oldName)
	}
	if prof, ok := doc.Profiles.Compute[oldName]; ok {
		doc.Profiles.Compute[newName] = prof
		delete(doc.Profiles.Compute, oldName)
	}
	if doc.Profiles.Name == oldName {
		doc.Profiles.Name = newName
	}
	for region, placement := range doc.Profiles.Placement {
		if price, ok := placement.Pricing[oldName]; ok {
			placement.Pricing[newName] = price
			delete(placement.Pricing, oldName)
			doc.Profiles.Placement[region] = placement
		}
	}
	if regions, ok := doc.Deployment[oldName]; ok {
		doc.Deployment[newName] = regions
		delete(doc.Deployment, oldName)
	}
	for _, regions := range doc.Deployment {
		for region, cell := range regions {
			if cell.Profile == oldName {
				cell.Profile = newName
				regions[region] = cell
			}
		}
	}
}

func firstKey[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
