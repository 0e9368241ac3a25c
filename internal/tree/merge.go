package tree

// Merge builds the upgraded tree for a migration.
//
// It starts from a deep copy of def. Every non-nil value of cur overrides
// the default: a mapping is merged one level deep (cur's sub-keys win,
// default-only sub-keys survive), anything else, arrays included, replaces
// the default outright. The version of the result is always def's version.
func Merge(def, cur Tree) Tree {
	merged := Clone(def)

	for key, value := range Clone(cur) {
		if value == nil {
			continue
		}

		if sub, ok := Mapping(value); ok {
			base, baseOK := Mapping(merged[key])
			if !baseOK {
				merged[key] = sub
				continue
			}
			for subKey, subValue := range sub {
				base[subKey] = subValue
			}
			merged[key] = base
			continue
		}

		merged[key] = value
	}

	if v, ok := def[VersionKey]; ok {
		merged[VersionKey] = v
	} else {
		delete(merged, VersionKey)
	}
	return merged
}
