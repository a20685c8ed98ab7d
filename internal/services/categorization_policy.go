package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"spendwise/internal/config"
	"spendwise/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPolicyFile      = errors.New("invalid categorization policy file")
	ErrInvalidPolicyThreshold = errors.New("policy thresholds must not be negative")
)

// PolicyConfig holds the label table and importance thresholds. Label keys are
// matched case-insensitively.
type PolicyConfig struct {
	OptionalThreshold float64
	WastefulThreshold float64
	LabelMap          map[string]models.Category
}

type categorizationPolicy struct {
	optionalThreshold float64
	wastefulThreshold float64
	labels            map[string]models.Category
}

// policyFile is the on-disk YAML layout. Omitted fields keep their defaults.
type policyFile struct {
	OptionalThreshold *float64          `yaml:"optional_threshold"`
	WastefulThreshold *float64          `yaml:"wasteful_threshold"`
	Labels            map[string]string `yaml:"labels"`
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		OptionalThreshold: 100,
		WastefulThreshold: 200,
		LabelMap:          defaultLabelMap(),
	}
}

func NewCategorizationPolicy(cfg PolicyConfig) CategorizationPolicyInterface {
	labels := make(map[string]models.Category, len(cfg.LabelMap))
	for label, category := range cfg.LabelMap {
		labels[normalizeLabel(label)] = category
	}
	return &categorizationPolicy{
		optionalThreshold: cfg.OptionalThreshold,
		wastefulThreshold: cfg.WastefulThreshold,
		labels:            labels,
	}
}

// NewPolicyConfig starts from the built-in table, applies the configured
// thresholds and then overlays the policy file when one is set.
func NewPolicyConfig(cfg *config.PolicyConfig) (PolicyConfig, error) {
	policy := DefaultPolicyConfig()
	policy.OptionalThreshold = cfg.OptionalThreshold
	policy.WastefulThreshold = cfg.WastefulThreshold

	if cfg.File == "" {
		return policy, nil
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return PolicyConfig{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicyConfig(data, policy)
}

// ParsePolicyConfig overlays a YAML document onto base. Unknown category
// labels are rejected.
func ParsePolicyConfig(data []byte, base PolicyConfig) (PolicyConfig, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PolicyConfig{}, fmt.Errorf("%w: %v", ErrInvalidPolicyFile, err)
	}

	merged := PolicyConfig{
		OptionalThreshold: base.OptionalThreshold,
		WastefulThreshold: base.WastefulThreshold,
		LabelMap:          make(map[string]models.Category, len(base.LabelMap)+len(file.Labels)),
	}
	for label, category := range base.LabelMap {
		merged.LabelMap[label] = category
	}

	if file.OptionalThreshold != nil {
		merged.OptionalThreshold = *file.OptionalThreshold
	}
	if file.WastefulThreshold != nil {
		merged.WastefulThreshold = *file.WastefulThreshold
	}
	if merged.OptionalThreshold < 0 || merged.WastefulThreshold < 0 {
		return PolicyConfig{}, ErrInvalidPolicyThreshold
	}

	for label, raw := range file.Labels {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return PolicyConfig{}, fmt.Errorf("%w: label %q: %w", ErrInvalidPolicyFile, label, err)
		}
		merged.LabelMap[label] = category
	}

	return merged, nil
}

// Categorize maps the most general provider label. Unmapped or missing labels
// fall into misc.
func (p *categorizationPolicy) Categorize(labels []string) models.Category {
	if len(labels) == 0 {
		return models.CategoryMisc
	}
	if category, ok := p.labels[normalizeLabel(labels[0])]; ok {
		return category
	}
	return models.CategoryMisc
}

// Importance applies the rules in order: necessary and important categories
// first, then the optional threshold for entertainment and shopping, then the
// wasteful threshold for everything else.
func (p *categorizationPolicy) Importance(category models.Category, amount float64) models.Importance {
	switch category {
	case models.CategoryEssential, models.CategoryHealthcare:
		return models.ImportanceNecessary
	case models.CategoryEducation, models.CategorySavings:
		return models.ImportanceImportant
	case models.CategoryEntertainment, models.CategoryShopping:
		if amount > p.optionalThreshold {
			return models.ImportanceOptional
		}
	}

	if amount > p.wastefulThreshold {
		return models.ImportanceWasteful
	}
	return models.ImportanceOptional
}

func defaultLabelMap() map[string]models.Category {
	return map[string]models.Category{
		"Bank Fees":      models.CategoryEssential,
		"Transfer":       models.CategoryMisc,
		"Credit Card":    models.CategoryEssential,
		"Payment":        models.CategoryMisc,
		"Food and Drink": models.CategoryEssential,
		"Groceries":      models.CategoryEssential,
		"Entertainment":  models.CategoryEntertainment,
		"Shopping":       models.CategoryShopping,
		"Travel":         models.CategoryTransport,
		"Healthcare":     models.CategoryHealthcare,
		"Education":      models.CategoryEducation,
		"Investment":     models.CategorySavings,
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
