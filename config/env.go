package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds the environment variables the bot reads at startup.
type Env struct {
	Token   string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	GuildID string `env:"DISCORD_GUILD_ID"`
}

// LoadEnv loads envFile into the process environment (when the file exists)
// and parses the variables the bot needs. A missing or empty token is an
// error; the guild id is optional.
func LoadEnv(envFile string) (Env, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Env{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// PersistEnvVar writes or updates a key=value pair in the env file, creating
// the file if it does not exist. Used by the sync command to remember the
// guild id across restarts.
func PersistEnvVar(envFile, key, value string) error {
	var lines []string
	if raw, err := os.ReadFile(envFile); err == nil {
		lines = strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	entry := key + "=" + value
	found := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), key+"=") {
			lines[i] = entry
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, entry)
	}

	out := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(envFile, []byte(out), 0o600)
}
