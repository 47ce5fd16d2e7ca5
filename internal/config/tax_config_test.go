package config

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"finance-tax-api/internal/models"
)

func TestLoadTaxSystemConfig(t *testing.T) {
	// Save original environment
	originalEnv := make(map[string]string)
	envVars := []string{
		"TAX_COUNTRY_CODE",
		"TAX_VAT_RATE_OVERRIDE",
		"TAX_SSL_RATE_OVERRIDE",
		"TAX_RULES_FILE",
	}

	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}

	// Restore environment after test
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*TaxSystemConfig)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			wantErr: false,
			check: func(config *TaxSystemConfig) {
				if config.CountryCode != "LK" {
					t.Errorf("Expected default country code LK, got %s", config.CountryCode)
				}
				if config.VATRateOverride.Valid || config.SSLRateOverride.Valid {
					t.Error("Expected no rate overrides by default")
				}
				if config.RulesFile != "" {
					t.Errorf("Expected no rules file, got %s", config.RulesFile)
				}
			},
		},
		{
			name: "lower case country and overrides",
			envVars: map[string]string{
				"TAX_COUNTRY_CODE":      "lk",
				"TAX_VAT_RATE_OVERRIDE": "0.15",
				"TAX_SSL_RATE_OVERRIDE": "0",
			},
			wantErr: false,
			check: func(config *TaxSystemConfig) {
				if config.CountryCode != "LK" {
					t.Errorf("Expected country code LK, got %s", config.CountryCode)
				}
				if !config.VATRateOverride.Valid || !config.VATRateOverride.Decimal.Equal(decimal.NewFromFloat(0.15)) {
					t.Errorf("Expected VAT override 0.15, got %+v", config.VATRateOverride)
				}
				if !config.SSLRateOverride.Valid || !config.SSLRateOverride.Decimal.IsZero() {
					t.Errorf("Expected SSL override 0, got %+v", config.SSLRateOverride)
				}
			},
		},
		{
			name: "invalid VAT override",
			envVars: map[string]string{
				"TAX_VAT_RATE_OVERRIDE": "eighteen",
			},
			wantErr: true,
		},
		{
			name: "VAT override given as percentage",
			envVars: map[string]string{
				"TAX_VAT_RATE_OVERRIDE": "18",
			},
			wantErr: true,
		},
		{
			name: "negative SSL override",
			envVars: map[string]string{
				"TAX_SSL_RATE_OVERRIDE": "-0.025",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				os.Unsetenv(key)
			}
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			config, err := LoadTaxSystemConfig()

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.check != nil {
				tt.check(config)
			}
		})
	}
}

func TestTaxSystemConfig_BuildRegistry(t *testing.T) {
	t.Run("built-in only", func(t *testing.T) {
		config := &TaxSystemConfig{CountryCode: "LK"}

		registry, err := config.BuildRegistry()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		rules, err := registry.Get("")
		if err != nil {
			t.Fatal(err)
		}
		if !rules.VATRate.Equal(decimal.NewFromFloat(0.18)) {
			t.Errorf("Expected VAT 0.18, got %s", rules.VATRate)
		}
	})

	t.Run("overrides applied to a copy", func(t *testing.T) {
		config := &TaxSystemConfig{
			CountryCode:     "LK",
			VATRateOverride: decimal.NewNullDecimal(decimal.NewFromFloat(0.2)),
		}

		registry, err := config.BuildRegistry()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		rules, _ := registry.Get("LK")
		if !rules.VATRate.Equal(decimal.NewFromFloat(0.2)) {
			t.Errorf("Expected VAT override 0.2, got %s", rules.VATRate)
		}
		if !rules.SSLRate.Equal(decimal.NewFromFloat(0.025)) {
			t.Errorf("Expected SSL untouched, got %s", rules.SSLRate)
		}
		if rules.Version != "2024.1+overrides" {
			t.Errorf("Expected overridden version tag, got %s", rules.Version)
		}

		// The built-in rule set is unaffected
		if !models.SriLankaRuleSet().VATRate.Equal(decimal.NewFromFloat(0.18)) {
			t.Error("Override leaked into the built-in rule set")
		}
	})

	t.Run("unsupported country", func(t *testing.T) {
		config := &TaxSystemConfig{CountryCode: "ZZ"}

		if _, err := config.BuildRegistry(); !errors.Is(err, models.ErrUnsupportedCountry) {
			t.Errorf("Expected ErrUnsupportedCountry, got %v", err)
		}
		if err := config.ValidateConfig(); err == nil {
			t.Error("Expected ValidateConfig to fail")
		}
	})
}

func TestTaxSystemConfig_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *TaxSystemConfig
		wantErr bool
	}{
		{
			name:    "valid default",
			config:  &TaxSystemConfig{CountryCode: "LK"},
			wantErr: false,
		},
		{
			name:    "empty country code",
			config:  &TaxSystemConfig{},
			wantErr: true,
		},
		{
			name: "override out of range",
			config: &TaxSystemConfig{
				CountryCode:     "LK",
				SSLRateOverride: decimal.NewNullDecimal(decimal.NewFromInt(2)),
			},
			wantErr: true,
		},
		{
			name:    "missing rules file",
			config:  &TaxSystemConfig{CountryCode: "LK", RulesFile: "/nonexistent/rules.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaxSystemConfig_CreateTaxService(t *testing.T) {
	config := &TaxSystemConfig{CountryCode: "LK"}

	service, err := config.CreateTaxService(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if service.Registry().DefaultCountry() != "LK" {
		t.Errorf("Expected LK default, got %s", service.Registry().DefaultCountry())
	}

	serviceConfig, err := config.ServiceConfig(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if serviceConfig.TaxConfig.CountryCode != "LK" || len(serviceConfig.TaxConfig.RuleSets) == 0 {
		t.Errorf("Unexpected service config: %+v", serviceConfig.TaxConfig)
	}
}

func TestGetSupportedCountries(t *testing.T) {
	countries := GetSupportedCountries()

	if len(countries) == 0 {
		t.Fatal("No supported countries returned")
	}

	for _, country := range countries {
		if country.Code == "" || country.Name == "" || country.Currency == "" {
			t.Errorf("Incomplete country info: %+v", country)
		}
	}

	if countries[0].Code != "LK" || countries[0].Currency != "LKR" {
		t.Errorf("Expected Sri Lanka first, got %+v", countries[0])
	}
}

func TestGetTaxConfigurationGuide(t *testing.T) {
	guide := GetTaxConfigurationGuide()

	if guide == nil {
		t.Fatal("Configuration guide is nil")
	}

	if len(guide.EnvironmentVariables) == 0 {
		t.Error("No environment variables in guide")
	}

	if len(guide.Examples) == 0 {
		t.Error("No examples in guide")
	}

	if len(guide.SupportedCountries) == 0 {
		t.Error("No supported countries in guide")
	}

	// Validate environment variables
	for _, envVar := range guide.EnvironmentVariables {
		if envVar.Name == "" {
			t.Error("Environment variable has empty name")
		}
		if envVar.Description == "" {
			t.Error("Environment variable has empty description")
		}
	}

	// Validate examples
	for _, example := range guide.Examples {
		if example.Name == "" {
			t.Error("Example has empty name")
		}
		if len(example.EnvVars) == 0 {
			t.Error("Example has no environment variables")
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_VAR", "test_value")
	defer os.Unsetenv("TEST_VAR")

	if getEnvWithDefault("TEST_VAR", "default") != "test_value" {
		t.Error("getEnvWithDefault should return environment value")
	}

	if getEnvWithDefault("NONEXISTENT_VAR", "default") != "default" {
		t.Error("getEnvWithDefault should return default for nonexistent var")
	}

	os.Setenv("TEST_RATE_VAR", " 0.125 ")
	defer os.Unsetenv("TEST_RATE_VAR")

	rate, err := getEnvRate("TEST_RATE_VAR")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !rate.Valid || !rate.Decimal.Equal(decimal.NewFromFloat(0.125)) {
		t.Errorf("Expected rate 0.125, got %+v", rate)
	}

	rate, err = getEnvRate("NONEXISTENT_RATE_VAR")
	if err != nil || rate.Valid {
		t.Errorf("Expected no rate for nonexistent var, got %+v (%v)", rate, err)
	}
}
