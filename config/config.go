package config

import (
	"encoding/json"
	"os"
	"strconv"
)

type Config struct {
	Discord      DiscordConfig     `json:"discord"`
	Permissions  PermissionsConfig `json:"permissions"`
	Tickets      TicketsConfig     `json:"tickets"`
	Health       HealthConfig      `json:"health"`
	Logging      LoggingConfig     `json:"logging"`
	MessagesFile string            `json:"messages_file"`
}

type DiscordConfig struct {
	Token    string `json:"token"`
	GuildID  string `json:"guild_id"`
	Prefix   string `json:"prefix"`
	Presence string `json:"presence"`
}

type PermissionsConfig struct {
	AdminRoles []string `json:"admin_roles"`
}

type TicketsConfig struct {
	ParentCategory     string   `json:"parent_category"`
	DeleteDelaySeconds int      `json:"delete_delay_seconds"`
	GeneralRoles       []string `json:"general_roles"`
	ReportRole         string   `json:"report_role"`
	UnbanRole          string   `json:"unban_role"`
}

type HealthConfig struct {
	Port int `json:"port"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig reads the JSON config file and applies defaults and environment
// overrides. DISCORD_TOKEN and PORT from the environment (or a .env file
// loaded by main) win over the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file is fine when the environment carries the token.
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if tok := os.Getenv("DISCORD_TOKEN"); tok != "" {
		cfg.Discord.Token = tok
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Health.Port = p
		}
	}

	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = "!"
	}
	if cfg.Discord.Presence == "" {
		cfg.Discord.Presence = "the support inbox"
	}
	if cfg.Tickets.DeleteDelaySeconds <= 0 {
		cfg.Tickets.DeleteDelaySeconds = 5
	}
	if len(cfg.Tickets.GeneralRoles) == 0 {
		cfg.Tickets.GeneralRoles = []string{"Support Team", "Helper Team"}
	}
	if cfg.Tickets.ReportRole == "" {
		cfg.Tickets.ReportRole = "Report Team"
	}
	if cfg.Tickets.UnbanRole == "" {
		cfg.Tickets.UnbanRole = "Appeal Team"
	}
	if len(cfg.Permissions.AdminRoles) == 0 {
		cfg.Permissions.AdminRoles = []string{"Admin"}
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.MessagesFile == "" {
		cfg.MessagesFile = "messages.yaml"
	}
	return &cfg, nil
}
