package constants

import (
	"strings"
)

// MatrixKind names a table shape produced by one extraction step.
type MatrixKind string

const (
	Diagnostic     MatrixKind = "diagnostic"
	PUO            MatrixKind = "puo"
	Activities     MatrixKind = "activities"
	Responsibility MatrixKind = "responsibility"
)

var allKinds = []MatrixKind{
	Diagnostic,
	PUO,
	Activities,
	Responsibility,
}

// KindsAsStringSlice returns every known matrix kind.
func KindsAsStringSlice() []string {
	result := make([]string, len(allKinds))
	for i, k := range allKinds {
		result[i] = string(k)
	}
	return result
}

// CanonicalizeKind maps user input (including Spanish names) to a MatrixKind.
func CanonicalizeKind(input string) (MatrixKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]MatrixKind{
		"diagnostico":                 Diagnostic,
		"diagnóstico":                 Diagnostic,
		"matriz de diagnostico":       Diagnostic,
		"matriz de diagnóstico":       Diagnostic,
		"matriz_diagnostico":          Diagnostic,
		"matriz puo":                  PUO,
		"matriz_puo":                  PUO,
		"actividades":                 Activities,
		"lista de actividades":        Activities,
		"activity-list":               Activities,
		"responsabilidades":           Responsibility,
		"matriz de responsabilidades": Responsibility,
		"raci":                        Responsibility,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}
	for _, k := range allKinds {
		if normalized == string(k) {
			return k, true
		}
	}
	return "", false
}
