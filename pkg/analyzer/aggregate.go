package analyzer

import "sort"

// Aggregate merges per-file usage into per-symbol usage for bindings
// imported from targetSource.
//
// Access-name sets are unioned, booleans OR'd, consuming files
// deduplicated. Aggregation is order-independent: inputs may arrive in any
// order (callers parallelize file analysis freely) and the result is
// identical; ConsumingFiles is sorted only to keep emitted warnings stable.
func Aggregate(usages []ImportUsage, targetSource string) map[string]AggregatedUsage {
	merged := make(map[string]AggregatedUsage)
	files := make(map[string]map[string]struct{})

	for _, usage := range usages {
		if usage.Source != targetSource {
			continue
		}

		agg, ok := merged[usage.ImportedName]
		if !ok {
			agg = AggregatedUsage{
				Name:               usage.ImportedName,
				AccessedProperties: make(map[string]struct{}),
				ElementProperties:  make(map[string]struct{}),
				AllTypeOnly:        true,
			}
			files[usage.ImportedName] = make(map[string]struct{})
		}

		for p := range usage.AccessedProperties {
			agg.AccessedProperties[p] = struct{}{}
		}
		for p := range usage.ElementProperties {
			agg.ElementProperties[p] = struct{}{}
		}
		agg.CalledDirectly = agg.CalledDirectly || usage.CalledDirectly
		agg.UsedAsElement = agg.UsedAsElement || usage.UsedAsElement
		agg.Constructed = agg.Constructed || usage.Constructed
		agg.AllTypeOnly = agg.AllTypeOnly && usage.IsTypeOnly
		files[usage.ImportedName][usage.FilePath] = struct{}{}

		merged[usage.ImportedName] = agg
	}

	for name, agg := range merged {
		agg.IsUsedAsNamespace = len(agg.AccessedProperties) > 0 || len(agg.ElementProperties) > 0

		agg.ConsumingFiles = make([]string, 0, len(files[name]))
		for f := range files[name] {
			agg.ConsumingFiles = append(agg.ConsumingFiles, f)
		}
		sort.Strings(agg.ConsumingFiles)

		merged[name] = agg
	}

	return merged
}
