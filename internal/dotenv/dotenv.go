package dotenv

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads environment variables from a .env file in the working directory.
// MINTBOT_ENV_FILE overrides the file path; the override must exist.
// A missing default .env is not an error.
func Load() error {
	if path := strings.TrimSpace(os.Getenv("MINTBOT_ENV_FILE")); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
