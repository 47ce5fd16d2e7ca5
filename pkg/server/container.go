package server

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"finance-tax-api/internal/config"
	"finance-tax-api/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	TaxConfig  *config.TaxSystemConfig
	Logger     *logrus.Logger
	Registry   *services.RuleSetRegistry
	TaxService services.TaxServiceInterface
	StartedAt  time.Time

	// Internal dependencies
	services *services.ServiceContainer
}

// NewContainer creates a new dependency injection container, reading the
// tax system configuration from the environment
func NewContainer(cfg *config.Config) (*Container, error) {
	taxConfig, err := config.LoadTaxSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tax configuration: %w", err)
	}

	return NewContainerWithTaxConfig(cfg, taxConfig)
}

// NewContainerWithTaxConfig creates a container from explicit configuration
func NewContainerWithTaxConfig(cfg *config.Config, taxConfig *config.TaxSystemConfig) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if taxConfig == nil {
		return nil, fmt.Errorf("tax configuration cannot be nil")
	}

	logger := config.ConfigureLogging(cfg.Logging)

	serviceConfig, err := taxConfig.ServiceConfig(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build tax rule sets: %w", err)
	}

	serviceContainer, err := services.NewServiceContainer(serviceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	if err := serviceContainer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service container: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"default_country": serviceContainer.Registry.DefaultCountry(),
		"rule_sets":       len(serviceContainer.Registry.Countries()),
		"rules_file":      taxConfig.RulesFile,
	}).Info("Tax engine initialized")

	return &Container{
		Config:     cfg,
		TaxConfig:  taxConfig,
		Logger:     logger,
		Registry:   serviceContainer.Registry,
		TaxService: serviceContainer.TaxService,
		StartedAt:  time.Now(),
		services:   serviceContainer,
	}, nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.services != nil {
		if err := c.services.Close(); err != nil {
			return fmt.Errorf("failed to close services: %w", err)
		}
	}

	return nil
}
