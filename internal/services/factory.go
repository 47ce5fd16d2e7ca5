package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"finance-tax-api/internal/models"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	Registry   *RuleSetRegistry
	Classifier ItemClassifier
	TaxService TaxServiceInterface
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	TaxConfig  *TaxConfig
	Classifier ItemClassifier
	Logger     *logrus.Logger

	// ClassifierRetry controls retries of an injected classifier; nil uses DefaultRetryConfig
	ClassifierRetry *RetryConfig
}

// TaxConfig holds tax service configuration
type TaxConfig struct {
	CountryCode string
	RuleSets    []*models.TaxRuleSet
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(config *ServiceConfig) (*ServiceContainer, error) {
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.TaxConfig == nil {
		config.TaxConfig = &TaxConfig{
			CountryCode: models.DefaultCountryCode,
		}
	}

	// Build the rule set registry
	var (
		registry *RuleSetRegistry
		err      error
	)
	if len(config.TaxConfig.RuleSets) > 0 {
		registry, err = NewRuleSetRegistry(config.TaxConfig.CountryCode, config.TaxConfig.RuleSets...)
	} else {
		registry, err = NewBuiltinRegistry(config.TaxConfig.CountryCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create rule set registry: %w", err)
	}

	// Injected providers are retried and backed by keyword classification
	var classifier ItemClassifier = NewKeywordClassifier()
	if config.Classifier != nil {
		classifier = NewRetryingClassifier(config.Classifier, classifier, config.ClassifierRetry, config.Logger)
	}

	taxService := NewTaxService(registry, classifier, config.Logger)

	return &ServiceContainer{
		Registry:   registry,
		Classifier: classifier,
		TaxService: taxService,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.Registry == nil {
		return fmt.Errorf("rule set registry is nil")
	}
	if sc.Classifier == nil {
		return fmt.Errorf("item classifier is nil")
	}
	if sc.TaxService == nil {
		return fmt.Errorf("tax service is nil")
	}

	return nil
}

// Close performs cleanup for all services
func (sc *ServiceContainer) Close() error {
	// Services hold no connections; this is a hook for classifiers that do
	return nil
}
