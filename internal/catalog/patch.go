package catalog

import (
	"github.com/rpattn/signalcat/internal/domain"
)

// applySignalPatch mutates signal in place and returns the field-level change
// set for the touched fields. The returned diff is the engine's fallback when
// the record has no prior ledger snapshot to compare against.
func applySignalPatch(signal *domain.Signal, patch SignalPatch) domain.Diff {
	diff := domain.Diff{}
	if patch.FrequencyFrom != nil && *patch.FrequencyFrom != signal.FrequencyFrom {
		diff["frequency_from"] = domain.FieldChange{Old: signal.FrequencyFrom, New: *patch.FrequencyFrom}
		signal.FrequencyFrom = *patch.FrequencyFrom
	}
	if patch.FrequencyTo != nil && *patch.FrequencyTo != signal.FrequencyTo {
		diff["frequency_to"] = domain.FieldChange{Old: signal.FrequencyTo, New: *patch.FrequencyTo}
		signal.FrequencyTo = *patch.FrequencyTo
	}
	if patch.Modulation != nil && *patch.Modulation != signal.Modulation {
		diff["modulation"] = domain.FieldChange{Old: signal.Modulation, New: *patch.Modulation}
		signal.Modulation = *patch.Modulation
	}
	if patch.Power != nil && *patch.Power != signal.Power {
		diff["power"] = domain.FieldChange{Old: signal.Power, New: *patch.Power}
		signal.Power = *patch.Power
	}
	return diff
}

// applyAssetPatch mutates asset in place and returns the field-level change
// set, including association changes, which surface under "signal_ids".
func applyAssetPatch(asset *domain.Asset, patch AssetPatch) domain.Diff {
	diff := domain.Diff{}
	if patch.Name != nil && *patch.Name != asset.Name {
		diff["name"] = domain.FieldChange{Old: asset.Name, New: *patch.Name}
		asset.Name = *patch.Name
	}
	if patch.Description != nil && *patch.Description != asset.Description {
		diff["description"] = domain.FieldChange{Old: asset.Description, New: *patch.Description}
		asset.Description = *patch.Description
	}
	if patch.SignalIDs != nil {
		before := append([]int64{}, asset.SignalIDs...)
		asset.SetSignalIDs(patch.SignalIDs)
		if !equalIDs(before, asset.SignalIDs) {
			diff["signal_ids"] = domain.FieldChange{Old: before, New: append([]int64{}, asset.SignalIDs...)}
		}
	}
	return diff
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
