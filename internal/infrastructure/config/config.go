package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the provisioner
type Config struct {
	Environment string       `mapstructure:"environment"`
	LogLevel    string       `mapstructure:"log_level"`
	EnvFile     string       `mapstructure:"env_file"`
	Circle      CircleConfig `mapstructure:"circle"`
}

// CircleConfig holds Circle API configuration
type CircleConfig struct {
	APIKey        string `mapstructure:"api_key"`
	EntitySecret  string `mapstructure:"entity_secret"`
	Environment   string `mapstructure:"environment"` // sandbox or production
	BaseURL       string `mapstructure:"base_url"`
	WalletSetName string `mapstructure:"wallet_set_name"`
	WalletSetID   string `mapstructure:"wallet_set_id"`
	RecoveryDir   string `mapstructure:"recovery_dir"`
}

// Load loads configuration from the env file, config files and environment
// variables, in that order of increasing precedence.
func Load(envFile string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	if envFile != "" {
		godotenv.Load(envFile)
	} else {
		godotenv.Load()
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if envFile != "" {
		config.EnvFile = envFile
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("env_file", ".env")

	viper.SetDefault("circle.environment", "sandbox")
	viper.SetDefault("circle.api_key", "")
	viper.SetDefault("circle.entity_secret", "")
	viper.SetDefault("circle.base_url", "")
	viper.SetDefault("circle.wallet_set_name", "NovaVault")
	viper.SetDefault("circle.wallet_set_id", "")
	viper.SetDefault("circle.recovery_dir", "recovery")
}

func overrideFromEnv() {
	if circleKey := os.Getenv("CIRCLE_API_KEY"); circleKey != "" {
		viper.Set("circle.api_key", circleKey)
	}
	if entitySecret := os.Getenv("CIRCLE_ENTITY_SECRET"); entitySecret != "" {
		viper.Set("circle.entity_secret", entitySecret)
	}
	if circleBaseURL := os.Getenv("CIRCLE_BASE_URL"); circleBaseURL != "" {
		viper.Set("circle.base_url", circleBaseURL)
	}
	if circleEnv := os.Getenv("CIRCLE_ENVIRONMENT"); circleEnv != "" {
		viper.Set("circle.environment", circleEnv)
	}
	if walletSetName := os.Getenv("CIRCLE_WALLET_SET_NAME"); walletSetName != "" {
		viper.Set("circle.wallet_set_name", walletSetName)
	}
	if walletSetID := os.Getenv("CIRCLE_WALLET_SET_ID"); walletSetID != "" {
		viper.Set("circle.wallet_set_id", walletSetID)
	}
	if recoveryDir := os.Getenv("CIRCLE_RECOVERY_DIR"); recoveryDir != "" {
		viper.Set("circle.recovery_dir", recoveryDir)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		viper.Set("log_level", logLevel)
	}
}

// ValidateForRegister checks the credentials needed before entity secret
// registration. No network call may be issued when this fails.
func (c *Config) ValidateForRegister() error {
	if strings.TrimSpace(c.Circle.APIKey) == "" {
		return fmt.Errorf("circle API key is required")
	}
	return nil
}

// ValidateForSetup checks the credentials needed before wallet provisioning.
func (c *Config) ValidateForSetup() error {
	if err := c.ValidateForRegister(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Circle.EntitySecret) == "" {
		return fmt.Errorf("circle entity secret is required")
	}
	return nil
}
