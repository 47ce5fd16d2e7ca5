package config

import "os"

// Deployment modes reported by GetDeploymentMode
const (
	DeploymentServer     = "server"
	DeploymentServerless = "serverless"
)

// Deployment describes where the tax API is running
type Deployment struct {
	Mode         string
	FunctionName string
	Region       string
	MemoryMB     int
}

// DetectDeployment reads the Lambda runtime variables. Outside Lambda the
// mode is DeploymentServer and the other fields are empty.
func DetectDeployment() Deployment {
	name := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	if name == "" {
		return Deployment{Mode: DeploymentServer}
	}

	return Deployment{
		Mode:         DeploymentServerless,
		FunctionName: name,
		Region:       GetEnv("AWS_REGION", GetEnv("AWS_DEFAULT_REGION", "")),
		MemoryMB:     GetEnvAsInt("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", 0),
	}
}

// IsServerlessMode returns true when running inside AWS Lambda
func IsServerlessMode() bool {
	return DetectDeployment().Mode == DeploymentServerless
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	return DetectDeployment().Mode
}

// adaptForLambda switches to JSON logs and leaves throttling to API Gateway
func adaptForLambda(config *Config) *Config {
	config.Logging.Format = "json"
	config.RateLimit.Enabled = false
	return config
}

// GetOptimizedConfig loads configuration and adapts it to the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	if IsServerlessMode() {
		config = adaptForLambda(config)
	}
	return config, nil
}
