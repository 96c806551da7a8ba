package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"inboxbrief/internal/logger"
)

// Config holds all application configuration. It is built once by Load and
// passed to the components that need it; nothing mutates it afterwards.
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Mail       Mail       `mapstructure:"mail"`
	Processing Processing `mapstructure:"processing"`
	Storage    Storage    `mapstructure:"storage"`
	Themes     Themes     `mapstructure:"themes"`
	Output     Output     `mapstructure:"output"`
	Schedule   Schedule   `mapstructure:"schedule"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds language model configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	Delay       string  `mapstructure:"delay"` // Pause after each successful call
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// TimeoutDuration returns the per-call timeout. Load has already validated it.
func (g GeminiConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(g.Timeout)
	return d
}

// DelayDuration returns the throttle pause. Load has already validated it.
func (g GeminiConfig) DelayDuration() time.Duration {
	d, _ := time.ParseDuration(g.Delay)
	return d
}

// Mail holds mail source configuration
type Mail struct {
	Provider        string   `mapstructure:"provider"` // gmail or imap
	Label           string   `mapstructure:"label"`
	NewerThan       string   `mapstructure:"newer_than"` // Gmail-style window: 1d, 12h, 2w
	MaxThreads      int64    `mapstructure:"max_threads"`
	MarkRead        bool     `mapstructure:"mark_read"`
	SkipPatterns    []string `mapstructure:"skip_patterns"`
	ExcludeSubjects []string `mapstructure:"exclude_subjects"`
	Gmail           Gmail    `mapstructure:"gmail"`
	IMAP            IMAP     `mapstructure:"imap"`
}

// Gmail holds Gmail API configuration
type Gmail struct {
	User            string `mapstructure:"user"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// IMAP holds IMAP server configuration
type IMAP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// Processing holds the per-message thresholds
type Processing struct {
	MaxContentLength int  `mapstructure:"max_content_length"`
	MinContentLength int  `mapstructure:"min_content_length"`
	MinSummaryLength int  `mapstructure:"min_summary_length"`
	RecordSkipped    bool `mapstructure:"record_skipped"` // Record model SKIP replies in the ledger
}

// Storage holds persistence configuration
type Storage struct {
	Path            string `mapstructure:"path"`
	ProcessedIDsKey string `mapstructure:"processed_ids_key"`
	MaxStoredIDs    int    `mapstructure:"max_stored_ids"`
}

// Themes holds the taxonomy and keyword recovery table
type Themes struct {
	Labels   []string      `mapstructure:"labels"`
	Default  string        `mapstructure:"default"`
	Keywords []KeywordRule `mapstructure:"keywords"`
}

// KeywordRule maps a lowercase keyword onto a taxonomy label.
type KeywordRule struct {
	Keyword string `mapstructure:"keyword"`
	Theme   string `mapstructure:"theme"`
}

// Output holds document sink configuration
type Output struct {
	Sink      string `mapstructure:"sink"` // gdocs, markdown or terminal
	Directory string `mapstructure:"directory"`
	Timezone  string `mapstructure:"timezone"`
	GDocs     GDocs  `mapstructure:"gdocs"`
}

// GDocs holds Google Docs configuration
type GDocs struct {
	DocumentID      string `mapstructure:"document_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// Schedule holds the cron trigger configuration
type Schedule struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Location returns the output timezone, falling back to UTC.
func (o Output) Location() *time.Location {
	if loc, err := time.LoadLocation(o.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

var (
	validProviders = []string{"gmail", "imap"}
	validSinks     = []string{"gdocs", "markdown", "terminal"}
)

// Load loads the configuration from defaults, an optional YAML file, .env and
// the environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.Warn("Error loading .env file", "error", err.Error())
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".inboxbrief")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.SetEnvPrefix("INBOXBRIEF")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = v.ConfigFileUsed()

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.debug", false)
	v.SetDefault("app.data_dir", ".inboxbrief")

	// AI defaults
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.timeout", "60s")
	v.SetDefault("ai.gemini.delay", "2s")
	v.SetDefault("ai.gemini.max_tokens", 4096)
	v.SetDefault("ai.gemini.temperature", 0.3)

	// Mail defaults
	v.SetDefault("mail.provider", "gmail")
	v.SetDefault("mail.label", "Newsletters")
	v.SetDefault("mail.newer_than", "1d")
	v.SetDefault("mail.max_threads", 50)
	v.SetDefault("mail.mark_read", true)
	v.SetDefault("mail.skip_patterns", DefaultSkipPatterns)
	v.SetDefault("mail.exclude_subjects", []string{})
	v.SetDefault("mail.gmail.user", "me")
	v.SetDefault("mail.gmail.credentials_file", "credentials.json")
	v.SetDefault("mail.gmail.token_file", "token.json")
	v.SetDefault("mail.imap.port", 993)
	v.SetDefault("mail.imap.use_tls", true)

	// Processing defaults
	v.SetDefault("processing.max_content_length", 25000)
	v.SetDefault("processing.min_content_length", 500)
	v.SetDefault("processing.min_summary_length", 50)
	v.SetDefault("processing.record_skipped", true)

	// Storage defaults
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.processed_ids_key", "PROCESSED_MESSAGE_IDS")
	v.SetDefault("storage.max_stored_ids", 500)

	// Theme defaults
	v.SetDefault("themes.labels", DefaultThemeLabels)
	v.SetDefault("themes.default", DefaultTheme)
	v.SetDefault("themes.keywords", defaultKeywordMaps())

	// Output defaults
	v.SetDefault("output.sink", "gdocs")
	v.SetDefault("output.directory", "digests")
	v.SetDefault("output.timezone", "UTC")
	v.SetDefault("output.gdocs.credentials_file", "credentials.json")
	v.SetDefault("output.gdocs.token_file", "token.json")

	// Schedule defaults
	v.SetDefault("schedule.cron", "0 7 * * *")
	v.SetDefault("schedule.timezone", "UTC")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	// Gemini API key - support multiple formats
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "output.gdocs.document_id", []string{
		"INBOXBRIEF_DOCUMENT_ID",
		"GOOGLE_DOC_ID",
	})

	bindEnvKeys(v, "mail.imap.host", []string{"IMAP_HOST"})
	bindEnvKeys(v, "mail.imap.username", []string{"IMAP_USERNAME", "IMAP_USER"})
	bindEnvKeys(v, "mail.imap.password", []string{"IMAP_PASSWORD"})
}

// bindEnvKeys sets viperKey from the first non-empty variable in envKeys
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	// Expand paths
	config.App.DataDir = expandPath(config.App.DataDir)
	config.Output.Directory = expandPath(config.Output.Directory)
	config.Mail.Gmail.CredentialsFile = expandPath(config.Mail.Gmail.CredentialsFile)
	config.Mail.Gmail.TokenFile = expandPath(config.Mail.Gmail.TokenFile)
	config.Output.GDocs.CredentialsFile = expandPath(config.Output.GDocs.CredentialsFile)
	config.Output.GDocs.TokenFile = expandPath(config.Output.GDocs.TokenFile)

	if config.Storage.Path == "" {
		config.Storage.Path = filepath.Join(config.App.DataDir, "inboxbrief.db")
	} else {
		config.Storage.Path = expandPath(config.Storage.Path)
	}

	config.Mail.Provider = strings.ToLower(strings.TrimSpace(config.Mail.Provider))
	config.Output.Sink = strings.ToLower(strings.TrimSpace(config.Output.Sink))

	// Validate durations
	durations := map[string]string{
		"ai.gemini.timeout": config.AI.Gemini.Timeout,
		"ai.gemini.delay":   config.AI.Gemini.Delay,
	}

	for key, duration := range durations {
		if duration == "" {
			continue
		}
		d, err := time.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, duration)
		}
		if d < 0 {
			return fmt.Errorf("negative duration for %s: %s", key, duration)
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks the settings every command depends on. Credentials
// needed only for a live run are checked by ValidateForRun.
func validateConfig(config *Config) error {
	var errs []string

	if !contains(validProviders, config.Mail.Provider) {
		errs = append(errs, fmt.Sprintf("Unknown mail provider: %s. Supported: %s", config.Mail.Provider, strings.Join(validProviders, ", ")))
	}
	if !contains(validSinks, config.Output.Sink) {
		errs = append(errs, fmt.Sprintf("Unknown output sink: %s. Supported: %s", config.Output.Sink, strings.Join(validSinks, ", ")))
	}
	if config.Storage.MaxStoredIDs <= 0 {
		errs = append(errs, "storage.max_stored_ids must be positive")
	}
	if config.Storage.ProcessedIDsKey == "" {
		errs = append(errs, "storage.processed_ids_key must not be empty")
	}
	if config.Processing.MaxContentLength <= 0 {
		errs = append(errs, "processing.max_content_length must be positive")
	}
	if config.Mail.MaxThreads <= 0 {
		errs = append(errs, "mail.max_threads must be positive")
	}
	if len(config.Themes.Labels) == 0 {
		errs = append(errs, "themes.labels must list at least one theme")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ValidateForRun checks the credentials a live digest run needs.
func (c *Config) ValidateForRun(dryRun bool) error {
	var errs []string

	if c.AI.Gemini.APIKey == "" {
		errs = append(errs, "Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file.\nGet your API key from: https://aistudio.google.com/app/apikey")
	}

	if c.Mail.Provider == "imap" && (c.Mail.IMAP.Host == "" || c.Mail.IMAP.Username == "") {
		errs = append(errs, "IMAP host and username are required when mail.provider is imap. Set IMAP_HOST and IMAP_USERNAME")
	}

	if !dryRun && c.Output.Sink == "gdocs" && c.Output.GDocs.DocumentID == "" {
		errs = append(errs, "Google Docs document id is required. Set INBOXBRIEF_DOCUMENT_ID or output.gdocs.document_id")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
