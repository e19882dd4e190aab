package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Canonical names for quantities embedded on legacy workout-exercise records.
const (
	LegacyWeight    = "weight"
	LegacyReps      = "reps"
	LegacyCompleted = "completed"
	LegacyOrder     = "order"
	LegacySetCount  = "set_count"
	LegacySets      = "sets"
)

// legacyFieldMap maps lowercased field names written by older clients to
// their canonical name. This is the only place those synonyms are known.
var legacyFieldMap = map[string]string{
	// weight
	"weight":    LegacyWeight,
	"weight_kg": LegacyWeight,
	"weightkg":  LegacyWeight,
	"kg":        LegacyWeight,
	"load":      LegacyWeight,

	// reps
	"reps":        LegacyReps,
	"rep_count":   LegacyReps,
	"repcount":    LegacyReps,
	"repetitions": LegacyReps,
	"num_reps":    LegacyReps,

	// completion
	"completed":    LegacyCompleted,
	"is_completed": LegacyCompleted,
	"iscompleted":  LegacyCompleted,
	"done":         LegacyCompleted,
	"is_done":      LegacyCompleted,

	// order within the exercise
	"order":      LegacyOrder,
	"set_order":  LegacyOrder,
	"set_number": LegacyOrder,
	"position":   LegacyOrder,

	// flat records: how many identical sets were performed
	"set_count": LegacySetCount,
	"setcount":  LegacySetCount,
	"num_sets":  LegacySetCount,

	// nested set list
	"sets":     LegacySets,
	"set_data": LegacySets,
	"setdata":  LegacySets,
}

// NormalizeLegacyField maps a possibly-legacy field name to its canonical
// name. Returns the original string and false if unknown.
func NormalizeLegacyField(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := legacyFieldMap[lower]; ok {
		return canonical, true
	}
	return raw, false
}

// NormalizeLegacySets converts the quantities embedded on a legacy
// workout-exercise record into previous-performance sets.
//
// Two shapes are accepted: a nested list under a "sets"-like key, each
// element carrying weight/reps/completed/order, or a flat record with a
// single weight/reps pair and an optional set count. Sets explicitly
// marked as not completed are dropped.
func NormalizeLegacySets(raw map[string]any) []PreviousSet {
	fields := canonicalize(raw)

	if list, ok := fields[LegacySets].([]any); ok {
		var out []PreviousSet
		for i, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			set, ok := legacySet(canonicalize(obj), i)
			if ok {
				out = append(out, set)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
		for i := range out {
			out[i].Order = i
		}
		return out
	}

	set, ok := legacySet(fields, 0)
	if !ok {
		return nil
	}
	count := 1
	if n, ok := toFloat(fields[LegacySetCount]); ok && n >= 1 {
		count = int(n)
	}
	out := make([]PreviousSet, count)
	for i := range out {
		out[i] = PreviousSet{Weight: set.Weight, Reps: set.Reps, Order: i}
	}
	return out
}

func legacySet(fields map[string]any, index int) (PreviousSet, bool) {
	if done, ok := toBool(fields[LegacyCompleted]); ok && !done {
		return PreviousSet{}, false
	}
	weight, hasWeight := toFloat(fields[LegacyWeight])
	reps, hasReps := toFloat(fields[LegacyReps])
	if !hasWeight && !hasReps {
		return PreviousSet{}, false
	}
	order := index
	if o, ok := toFloat(fields[LegacyOrder]); ok {
		order = int(o)
	}
	return PreviousSet{Weight: weight, Reps: int(math.Round(reps)), Order: order}, true
}

// canonicalize rekeys a record by canonical field names. The first
// synonym seen wins when a record carries several.
func canonicalize(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	for _, k := range keys {
		name, known := NormalizeLegacyField(k)
		if !known {
			continue
		}
		if _, dup := out[name]; !dup {
			out[name] = raw[k]
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := ParseQuantity(x)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	case float64:
		return x != 0, true
	}
	return false, false
}
