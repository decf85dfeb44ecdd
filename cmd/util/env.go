package util

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// PreRunEWithEnvVars creates a PreRunE function that validates required connection parameters
// It checks SNOWFLAKE_* environment variables if the corresponding flags weren't explicitly set
func PreRunEWithEnvVars(config *ConnectionConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		envFlags := []struct {
			envVar string
			flag   string
			ptr    *string
		}{
			{"SNOWFLAKE_ACCOUNT", "account", &config.Account},
			{"SNOWFLAKE_USER", "user", &config.User},
			{"SNOWFLAKE_PASSWORD", "password", &config.Password},
			{"SNOWFLAKE_ROLE", "role", &config.Role},
			{"SNOWFLAKE_WAREHOUSE", "warehouse", &config.Warehouse},
		}
		for _, e := range envFlags {
			if value := GetEnvWithDefault(e.envVar, ""); value != "" && !cmd.Flags().Changed(e.flag) {
				*e.ptr = value
			}
		}

		// Now validate that we have the required values
		if config.Account == "" {
			return fmt.Errorf("account is required (use --account flag or SNOWFLAKE_ACCOUNT environment variable)")
		}
		if config.User == "" {
			return fmt.Errorf("user is required (use --user flag or SNOWFLAKE_USER environment variable)")
		}

		return nil
	}
}
