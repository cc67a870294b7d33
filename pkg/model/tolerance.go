package model

// ToleranceConfig controls which differences the tolerance engine treats
// as equivalent rather than breaking (§3, §4.C).
type ToleranceConfig struct {
	TimestampDriftSeconds float64  `json:"timestampDriftSeconds" yaml:"timestampDriftSeconds"`
	IgnoreUUIDs           bool     `json:"ignoreUUIDs" yaml:"ignoreUUIDs"`
	SortArrays            bool     `json:"sortArrays" yaml:"sortArrays"`
	ArrayFields           []string `json:"arrayFields,omitempty" yaml:"arrayFields,omitempty"`
	TimestampFields       []string `json:"timestampFields,omitempty" yaml:"timestampFields,omitempty"`
	UUIDFields            []string `json:"uuidFields,omitempty" yaml:"uuidFields,omitempty"`
	IgnoreFields          []string `json:"ignoreFields,omitempty" yaml:"ignoreFields,omitempty"`
	IgnoreHeaders         []string `json:"ignoreHeaders,omitempty" yaml:"ignoreHeaders,omitempty"`
}

// DefaultToleranceConfig matches the zero-value "default" mode: whatever
// tolerances the caller configured, with no forced defaults of its own.
func DefaultToleranceConfig() ToleranceConfig {
	return ToleranceConfig{}
}

// StrictToleranceConfig zeroes every tolerance feature (§4.E "strict" mode).
func StrictToleranceConfig() ToleranceConfig {
	return ToleranceConfig{}
}

// TolerantToleranceConfig force-enables every tolerance feature with
// permissive defaults (§4.E "tolerant" mode).
func TolerantToleranceConfig() ToleranceConfig {
	return ToleranceConfig{
		TimestampDriftSeconds: 5,
		IgnoreUUIDs:           true,
		SortArrays:            true,
		UUIDFields:            []string{"id"},
	}
}

// ComparisonMode selects a named ToleranceConfig preset (§4.E).
type ComparisonMode string

const (
	ModeStrict   ComparisonMode = "strict"
	ModeTolerant ComparisonMode = "tolerant"
	ModeDefault  ComparisonMode = "default"
)

// ResolveToleranceConfig applies a ComparisonMode over a caller-supplied
// ToleranceConfig, per §4.E.
func ResolveToleranceConfig(mode ComparisonMode, supplied ToleranceConfig) ToleranceConfig {
	switch mode {
	case ModeStrict:
		return StrictToleranceConfig()
	case ModeTolerant:
		return TolerantToleranceConfig()
	default:
		return supplied
	}
}
