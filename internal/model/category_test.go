package model

import "testing"

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel("smartphone"); got != "Smartphone" {
		t.Errorf("known category label = %q", got)
	}
	if !KnownCategory("elettrodomestico") {
		t.Error("elettrodomestico should be a known category")
	}
	if KnownCategory("astronave") {
		t.Error("astronave should not be a known category")
	}
	// Unknown keys get a readable derived label instead of the raw key.
	if got := CategoryLabel("macchina_caffe_custom"); got != "Macchina caffe custom" {
		t.Errorf("derived label = %q", got)
	}
	// Capitalization is rune-aware, not byte-aware.
	if got := CategoryLabel("élite_audio"); got != "Élite audio" {
		t.Errorf("multi-byte derived label = %q", got)
	}
	if got := CategoryLabel(""); got != "Categoria sconosciuta" {
		t.Errorf("empty category label = %q", got)
	}
}
