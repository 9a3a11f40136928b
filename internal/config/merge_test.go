package config

import (
	"testing"
)

func TestWasExplicitlySet(t *testing.T) {
	if WasExplicitlySet(nil, "bands") {
		t.Error("Expected false for nil flags map")
	}

	flags := map[string]bool{"bands": true, "seed": false}
	if !WasExplicitlySet(flags, "bands") {
		t.Error("Expected true for set flag")
	}
	if WasExplicitlySet(flags, "seed") {
		t.Error("Expected false for flag marked false")
	}
	if WasExplicitlySet(flags, "missing") {
		t.Error("Expected false for missing flag")
	}
}

func TestMergeScalars(t *testing.T) {
	flags := map[string]bool{"bands": true, "seed": true, "universe-size": true, "recursive": true, "metric": true}

	if got := MergeInt(20, 10, "bands", flags); got != 10 {
		t.Errorf("Expected 10, got %d", got)
	}
	if got := MergeInt(20, 10, "rows-per-band", flags); got != 20 {
		t.Errorf("Expected base 20 for unset flag, got %d", got)
	}

	if got := MergeInt64(0, -7, "seed", flags); got != -7 {
		t.Errorf("Expected -7, got %d", got)
	}
	if got := MergeUint64(2147483647, 1024, "universe-size", flags); got != 1024 {
		t.Errorf("Expected 1024, got %d", got)
	}
	if got := MergeBool(true, false, "recursive", flags); got {
		t.Error("Expected override false")
	}
	if got := MergeString("jaccard", "edit", "metric", flags); got != "edit" {
		t.Errorf("Expected 'edit', got %s", got)
	}
	if got := MergeString("jaccard", "edit", "generator", flags); got != "jaccard" {
		t.Errorf("Expected base 'jaccard' for unset flag, got %s", got)
	}
}

func TestMergeSlices(t *testing.T) {
	flags := map[string]bool{"include": true, "doc-len": true, "seeds": true}

	if got := MergeStringSlice([]string{"**/*.txt"}, []string{"**/*.log"}, "include", flags); got[0] != "**/*.log" {
		t.Errorf("Expected override patterns, got %v", got)
	}
	// An explicitly set flag with an empty value still keeps the base
	if got := MergeStringSlice([]string{"**/*.txt"}, nil, "include", flags); got[0] != "**/*.txt" {
		t.Errorf("Expected base patterns for empty override, got %v", got)
	}

	if got := MergeIntSlice([]int{10}, []int{3, 8}, "doc-len", flags); len(got) != 2 || got[1] != 8 {
		t.Errorf("Expected [3 8], got %v", got)
	}
	if got := MergeInt64Slice([]int64{1}, []int64{7, 8, 9}, "seeds", flags); len(got) != 3 {
		t.Errorf("Expected [7 8 9], got %v", got)
	}
	if got := MergeInt64Slice([]int64{1}, []int64{7}, "unset", flags); got[0] != 1 {
		t.Errorf("Expected base for unset flag, got %v", got)
	}
}
