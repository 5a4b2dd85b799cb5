package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log        `yaml:"log"`
	Server     Server     `yaml:"server"`
	OpenAI     OpenAI     `yaml:"openai"`
	Profile    Profile    `yaml:"profile"`
	CRM        CRM        `yaml:"crm"`
	KB         KB         `yaml:"kb"`
	Pricing    Pricing    `yaml:"pricing"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Supervisor Supervisor `yaml:"supervisor"`
	Reminder   Reminder   `yaml:"reminder"`
}

type OpenAI struct {
	Supervisor ModelConfig `yaml:"supervisor" validate:"required"`
	Summary    ModelConfig `yaml:"summary" validate:"required"`
	Confirm    ModelConfig `yaml:"confirm" validate:"required"`
	Detect     ModelConfig `yaml:"detect" validate:"required"`
	Agents     ModelConfig `yaml:"agents" validate:"required"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4.1-mini" validate:"required"`
}

type Server struct {
	// Listen address of the HTTP gateway
	Addr string `yaml:"addr" example:":8080"`
}

type Profile struct {
	// Base URL of the user profile source
	BaseURL string `yaml:"base_url" example:"https://crm.example.com/api" validate:"required"`
	// API token of the profile source
	Token string `yaml:"token"`
}

type CRM struct {
	// Base URL of the CRM appointments API
	BaseURL string `yaml:"base_url" example:"https://crm.example.com/api" validate:"required"`
	// API token of the CRM
	Token string `yaml:"token"`
}

type KB struct {
	// Path to the residential complexes catalog
	CatalogPath string `yaml:"catalog_path" example:"data/residential_complexes.json"`
	// Optional MCP retrieval server for full-text knowledge base search
	MCP MCPServer `yaml:"mcp"`
}

type MCPServer struct {
	// Command to start the MCP server, search is disabled if empty
	Command string `yaml:"command" example:"docker"`
	// Command arguments
	Args []string `yaml:"args"`
}

type Pricing struct {
	// Directory with per-complex SQLite databases (<complex_id>.db)
	Dir string `yaml:"dir" example:"data/pricing"`
}

type Supervisor struct {
	// Append a tool-call record to the history on every handoff
	AddHandoffMessages bool `yaml:"add_handoff_messages" example:"false"`
}

type Reminder struct {
	// How long before the scheduled call the reminder fires, in minutes
	LeadMinutes int `yaml:"lead_minutes" example:"60"`
}

type Scheduler struct {
	// IANA timezone of the sales managers
	Timezone string `yaml:"timezone" example:"Asia/Vladivostok" validate:"required"`
	// Weekday index (0=Monday .. 6=Sunday) to [open, close], null means closed
	WeeklySchedule map[int][]string `yaml:"weekly_schedule" validate:"required"`
	// Vague time-of-day phrase to "HH:MM"
	TimeOfDayAliases map[string]string `yaml:"timeofday_aliases"`
	// Phrases that mean "call me as soon as possible"
	UrgentPatterns []string `yaml:"urgent_patterns"`
	Calendar       Calendar `yaml:"calendar"`
}

type Calendar struct {
	// Dates closed regardless of weekday, "2006-01-02"
	Holidays []string `yaml:"holidays"`
	// Normally closed dates that are open and follow Monday's schedule
	WorkingWeekends []string `yaml:"working_weekends"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":8080"
	}
	if result.KB.CatalogPath == "" {
		result.KB.CatalogPath = "data/residential_complexes.json"
	}
	if result.Pricing.Dir == "" {
		result.Pricing.Dir = "data/pricing"
	}
	if result.Reminder.LeadMinutes <= 0 {
		result.Reminder.LeadMinutes = 60
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	if err := result.Scheduler.Validate(); err != nil {
		return nil, err
	}

	return &result, nil
}

// Validate checks the invariants the slot search depends on. The forward walk
// over the calendar terminates only if at least one weekday is open.
func (s *Scheduler) Validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return oops.Errorf("unknown scheduler timezone %q: %w", s.Timezone, err)
	}

	hasOpenDay := false
	for wd, window := range s.WeeklySchedule {
		if wd < 0 || wd > 6 {
			return oops.Errorf("weekly_schedule: weekday index %d out of range", wd)
		}
		if window == nil {
			continue
		}
		if len(window) != 2 {
			return oops.Errorf("weekly_schedule: day %d must be null or [open, close]", wd)
		}
		hasOpenDay = true
	}
	if !hasOpenDay {
		return oops.Errorf("weekly_schedule: at least one weekday must be open")
	}

	return nil
}
