// Package diff implements the StructuralDiffer (§4.D): walks two
// canonicalized trees in parallel and emits DiffRecords classified by
// kind, consulting the ToleranceClassifier before promoting a difference
// to the breaking-change tally.
//
// Grounded on pkg/rulespec.JSONPatchOp's (op/path/value/from) shape as
// the model for a tagged diff record — DiffKind is a closed sum type
// (Added/Removed/Modified/TypeChanged) the same way that type models a
// JSON-Patch operation, rather than the ad-hoc {kind:'N'|'D'|'E'} shape
// a direct port would produce.
package diff

import (
	"fmt"
	"sort"

	"replayverify/internal/canon"
	"replayverify/internal/tolerance"
	"replayverify/pkg/model"
)

// Differ walks two canonicalized trees and emits DiffRecords, consulting
// a Classifier for tolerance decisions along the way.
type Differ struct {
	tol *tolerance.Classifier
}

// New builds a Differ bound to the given Classifier.
func New(tol *tolerance.Classifier) *Differ {
	return &Differ{tol: tol}
}

// Compare walks recorded and replayed (both already canonicalized) and
// returns the ordered list of DiffRecords: depth-first, sorted-key
// traversal, per §4.D's determinism requirement.
func (d *Differ) Compare(section model.DiffSection, recorded, replayed any) []model.DiffRecord {
	var out []model.DiffRecord
	d.walk(section, "", recorded, replayed, &out)
	return out
}

func (d *Differ) walk(section model.DiffSection, path string, recorded, replayed any, out *[]model.DiffRecord) {
	if d.tol.IsIgnored(path) {
		return
	}

	recordedMap, recordedIsMap := recorded.(map[string]any)
	replayedMap, replayedIsMap := replayed.(map[string]any)
	if recordedIsMap || replayedIsMap {
		if !recordedIsMap || !replayedIsMap {
			d.emitTypeChange(section, path, recorded, replayed, out)
			return
		}
		d.walkObject(section, path, recordedMap, replayedMap, out)
		return
	}

	recordedSeq, recordedIsSeq := recorded.([]any)
	replayedSeq, replayedIsSeq := replayed.([]any)
	if recordedIsSeq || replayedIsSeq {
		if !recordedIsSeq || !replayedIsSeq {
			d.emitTypeChange(section, path, recorded, replayed, out)
			return
		}
		d.walkSequence(section, path, recordedSeq, replayedSeq, out)
		return
	}

	d.walkLeaf(section, path, recorded, replayed, out)
}

func (d *Differ) walkObject(section model.DiffSection, path string, recorded, replayed map[string]any, out *[]model.DiffRecord) {
	keys := make(map[string]struct{}, len(recorded)+len(replayed))
	for k := range recorded {
		keys[k] = struct{}{}
	}
	for k := range replayed {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		childPath := joinPath(path, k)
		if d.tol.IsIgnored(childPath) {
			continue
		}
		rv, rok := recorded[k]
		pv, pok := replayed[k]
		switch {
		case !rok:
			d.emitAdded(section, childPath, pv, out)
		case !pok:
			d.emitRemoved(section, childPath, rv, out)
		default:
			d.walk(section, childPath, rv, pv, out)
		}
	}
}

// walkSequence compares two arrays element-wise, carrying path
// `parent[index]` per §4.D's ArrayElem convention. When the
// ToleranceClassifier decides the path should be sorted, both sides are
// sorted by their canonical encoding first so reordering alone never
// produces a difference.
func (d *Differ) walkSequence(section model.DiffSection, path string, recorded, replayed []any, out *[]model.DiffRecord) {
	if d.tol.ShouldSortArray(path) {
		recorded = sortedCopy(recorded)
		replayed = sortedCopy(replayed)
	}

	n := len(recorded)
	if len(replayed) < n {
		n = len(replayed)
	}
	for i := 0; i < n; i++ {
		d.walk(section, fmt.Sprintf("%s[%d]", path, i), recorded[i], replayed[i], out)
	}
	for i := n; i < len(recorded); i++ {
		d.emitRemoved(section, fmt.Sprintf("%s[%d]", path, i), recorded[i], out)
	}
	for i := n; i < len(replayed); i++ {
		d.emitAdded(section, fmt.Sprintf("%s[%d]", path, i), replayed[i], out)
	}
}

func sortedCopy(xs []any) []any {
	out := make([]any, len(xs))
	copy(out, xs)
	sort.Slice(out, func(i, j int) bool {
		return string(canon.Encode(out[i])) < string(canon.Encode(out[j]))
	})
	return out
}

func (d *Differ) walkLeaf(section model.DiffSection, path string, recorded, replayed any, out *[]model.DiffRecord) {
	if canon.CategoryOf(recorded) != canon.CategoryOf(replayed) {
		d.emitTypeChange(section, path, recorded, replayed, out)
		return
	}
	if recorded == replayed {
		return
	}

	key := lastSegment(path)
	if d.tol.IsTimestamp(key, recorded) && d.tol.IsTimestamp(key, replayed) {
		if d.tol.TimestampsEquivalent(recorded, replayed) {
			d.emitTolerated(section, path, recorded, replayed, "timestamp within drift tolerance", out)
			return
		}
	}
	if d.tol.IsUUID(key, recorded) && d.tol.IsUUID(key, replayed) {
		if d.tol.UUIDsEquivalent(recorded, replayed) {
			d.emitTolerated(section, path, recorded, replayed, "UUID normalization", out)
			return
		}
	}

	d.emitModified(section, path, recorded, replayed, out)
}

func (d *Differ) emitAdded(section model.DiffSection, path string, value any, out *[]model.DiffRecord) {
	*out = append(*out, model.DiffRecord{
		Kind:     model.DiffAdded,
		Section:  section,
		Path:     path,
		Replayed: value,
	})
}

func (d *Differ) emitRemoved(section model.DiffSection, path string, value any, out *[]model.DiffRecord) {
	*out = append(*out, model.DiffRecord{
		Kind:     model.DiffRemoved,
		Section:  section,
		Path:     path,
		Recorded: value,
		Reason:   "Field was removed",
		Breaking: true,
	})
}

func (d *Differ) emitModified(section model.DiffSection, path string, recorded, replayed any, out *[]model.DiffRecord) {
	*out = append(*out, model.DiffRecord{
		Kind:     model.DiffModified,
		Section:  section,
		Path:     path,
		Recorded: recorded,
		Replayed: replayed,
	})
}

func (d *Differ) emitTypeChange(section model.DiffSection, path string, recorded, replayed any, out *[]model.DiffRecord) {
	from := canon.CategoryOf(recorded)
	to := canon.CategoryOf(replayed)
	*out = append(*out, model.DiffRecord{
		Kind:     model.DiffTypeChanged,
		Section:  section,
		Path:     path,
		Recorded: recorded,
		Replayed: replayed,
		Reason:   fmt.Sprintf("Type changed from %s to %s", from, to),
		Breaking: true,
	})
}

func (d *Differ) emitTolerated(section model.DiffSection, path string, recorded, replayed any, reason string, out *[]model.DiffRecord) {
	*out = append(*out, model.DiffRecord{
		Kind:            model.DiffModified,
		Section:         section,
		Path:            path,
		Recorded:        recorded,
		Replayed:        replayed,
		Tolerated:       true,
		ToleranceReason: reason,
	})
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// lastSegment returns the final dot-delimited field name in path,
// scanning past bracket groups (array indices) rather than stopping at
// them, so "a.b[2]" yields "b" and not "a.b".
func lastSegment(path string) string {
	end := len(path)
	for end > 0 && path[end-1] == ']' {
		open := end - 1
		for open >= 0 && path[open] != '[' {
			open--
		}
		if open < 0 {
			break
		}
		end = open
	}
	for i := end - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1 : end]
		}
	}
	return path[:end]
}
