package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// categoryLabels is the fixed key→label dictionary consulted by product
// display logic.  It is static configuration: new categories are added here,
// not at runtime.
var categoryLabels = map[string]string{
	"smartphone":       "Smartphone",
	"tablet":           "Tablet",
	"notebook":         "Notebook",
	"desktop":          "PC Desktop",
	"monitor":          "Monitor",
	"stampante":        "Stampante",
	"scanner":          "Scanner",
	"router":           "Router",
	"modem":            "Modem",
	"smart_tv":         "Smart TV",
	"console":          "Console di gioco",
	"fotocamera":       "Fotocamera digitale",
	"smartwatch":       "Smartwatch",
	"auricolari":       "Auricolari",
	"casse":            "Casse audio",
	"hard_disk":        "Hard disk esterno",
	"nas":              "NAS",
	"ups":              "Gruppo di continuità",
	"proiettore":       "Proiettore",
	"elettrodomestico": "Piccolo elettrodomestico",
}

// KnownCategory reports whether key belongs to the fixed category set.
func KnownCategory(key string) bool {
	_, ok := categoryLabels[key]
	return ok
}

// CategoryLabel maps a category key to its display label.  Unknown keys get
// a label derived from the key itself (underscores become spaces, first rune
// upper-cased) so the UI never shows a raw empty value.
func CategoryLabel(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	derived := strings.ReplaceAll(strings.TrimSpace(key), "_", " ")
	if derived == "" {
		return "Categoria sconosciuta"
	}
	first, size := utf8.DecodeRuneInString(derived)
	return string(unicode.ToUpper(first)) + derived[size:]
}

// CategoryKeys returns the known keys; used by product creation validation
// responses.
func CategoryKeys() []string {
	keys := make([]string, 0, len(categoryLabels))
	for k := range categoryLabels {
		keys = append(keys, k)
	}
	return keys
}
