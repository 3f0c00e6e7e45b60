package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stakewatch/passport-node/internal/log"
)

// Mode values for Runtime.Mode. Development mode replaces the external scorer,
// role granter and chain node with local mocks.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Configuration holds the project configuration
type Configuration struct {
	ServerURL    string        `mapstructure:"ServerUrl"`
	ServerPort   int           `mapstructure:"ServerPort"`
	Mode         string        `mapstructure:"Mode" tip:"Runtime mode: development or production"`
	Database     Database      `mapstructure:"Database"`
	Cache        Cache         `mapstructure:"Cache"`
	Log          Log           `mapstructure:"Log"`
	Chain        Chain         `mapstructure:"Chain"`
	Scorer       Scorer        `mapstructure:"Scorer"`
	Granter      Granter       `mapstructure:"Granter"`
	Roles        Roles         `mapstructure:"Roles"`
	Verification Verification  `mapstructure:"Verification"`
	SnapshotTTL  time.Duration `mapstructure:"SnapshotTTL" tip:"How long a cached validator snapshot stays fresh"`
}

// Database has the database configuration
// URL: The database connection string
type Database struct {
	URL string `mapstructure:"Url" tip:"The Datasource name locator"`
}

// Cache configurations
type Cache struct {
	RedisURL string `mapstructure:"RedisUrl" tip:"The redis url to use as a cache"`
}

// Chain holds the chain node RPC configuration
type Chain struct {
	RPCURL             string        `mapstructure:"RpcUrl" tip:"Chain node JSON-RPC url"`
	RPCResponseTimeout time.Duration `mapstructure:"RpcResponseTimeout" tip:"RPC response timeout"`
}

// Scorer holds the external sybil-resistance scoring API configuration
type Scorer struct {
	URL             string        `mapstructure:"Url" tip:"Scorer API base url"`
	ScorerID        string        `mapstructure:"ScorerId" tip:"Scorer id for submissions"`
	APIKey          string        `mapstructure:"ApiKey" tip:"Scorer API key"`
	ResponseTimeout time.Duration `mapstructure:"ResponseTimeout" tip:"Scorer response timeout"`
}

// Granter holds the role-grant collaborator configuration
type Granter struct {
	URL   string `mapstructure:"Url" tip:"Role granter base url"`
	Token string `mapstructure:"Token" tip:"Role granter auth token"`
}

// Roles holds the role names granted after a successful verification
type Roles struct {
	Verified  string `mapstructure:"Verified" tip:"Role granted when the minimum score is reached"`
	HighScore string `mapstructure:"HighScore" tip:"Extra role granted when the high score threshold is reached"`
}

// Verification holds the verification session policy
type Verification struct {
	MinimumScore       float64       `mapstructure:"MinimumScore" tip:"Inclusive minimum score to verify"`
	HighScoreThreshold float64       `mapstructure:"HighScoreThreshold" tip:"Inclusive score for the extra high-score role"`
	PollMaxAttempts    int           `mapstructure:"PollMaxAttempts" tip:"Maximum scorer poll attempts"`
	PollInterval       time.Duration `mapstructure:"PollInterval" tip:"Wait between scorer poll attempts"`
	MaxConcurrentPolls int           `mapstructure:"MaxConcurrentPolls" tip:"Cap on simultaneous outbound scorer calls"`
}

// Log holds runtime configurations
//
// Level: The minimum log level to show on logs. Values can be
//
//	 -4: Debug
//		0: Info
//		4: Warning
//		8: Error
//	 The default log level is debug
//
// Mode: Log mode is the format of the log. It can be text or json
// 1: JSON
// 2: Text
// The default log formal is JSON
type Log struct {
	Level int `mapstructure:"Level" tip:"Minimum level to log: (-4:Debug, 0:Info, 4:Warning, 8:Error)"`
	Mode  int `mapstructure:"Mode" tip:"Log format (1: JSON, 2:Structured text)"`
}

// Sanitize perform some basic checks and sanitizations in the configuration.
// Returns true if config is acceptable, error otherwise.
func (c *Configuration) Sanitize() error {
	sURL, err := c.validateServerURL()
	if err != nil {
		return fmt.Errorf("serverUrl is not a valid URL <%s>: %w", c.ServerURL, err)
	}
	c.ServerURL = sURL

	if c.Mode != ModeDevelopment && c.Mode != ModeProduction {
		return fmt.Errorf("mode must be <%s> or <%s>, got <%s>", ModeDevelopment, ModeProduction, c.Mode)
	}

	if c.Mode == ModeProduction {
		if c.Scorer.URL == "" {
			return fmt.Errorf("a scorer URL must be provided in production mode")
		}
		if c.Scorer.APIKey == "" {
			return fmt.Errorf("a scorer API key must be provided in production mode")
		}
		if c.Chain.RPCURL == "" {
			return fmt.Errorf("a chain RPC URL must be provided in production mode")
		}
	}

	if c.Verification.MinimumScore <= 0 {
		return fmt.Errorf("verification minimum score must be positive")
	}

	return nil
}

func (c *Configuration) validateServerURL() (string, error) {
	sURL, err := url.ParseRequestURI(c.ServerURL)
	if err != nil {
		return c.ServerURL, err
	}
	if sURL.Scheme == "" {
		return c.ServerURL, fmt.Errorf("server URL must be an absolute URL")
	}
	sURL.RawQuery = ""
	return strings.Trim(strings.Trim(sURL.String(), "/"), "?"), nil
}

// Load loads the configuration from a file
func Load(fileName string) (*Configuration, error) {
	bindEnv()
	pathFlag := viper.GetString("config")
	if _, err := os.Stat(pathFlag); err == nil {
		ext := filepath.Ext(pathFlag)
		if len(ext) > 1 {
			ext = ext[1:]
		}
		name := strings.Split(filepath.Base(pathFlag), ".")[0]
		viper.AddConfigPath(".")
		viper.SetConfigName(name)
		viper.SetConfigType(ext)
	} else {
		// Read default config file.
		viper.AddConfigPath(getWorkingDirectory())
		viper.SetConfigType("toml")
		if fileName == "" {
			viper.SetConfigName("config")
		} else {
			viper.SetConfigName(fileName)
		}
	}

	config := &Configuration{
		Mode: ModeProduction,
		Log: Log{
			Level: log.LevelDebug,
			Mode:  log.OutputText,
		},
		Chain: Chain{
			RPCResponseTimeout: 10 * time.Second,
		},
		Scorer: Scorer{
			ResponseTimeout: 10 * time.Second,
		},
		Verification: Verification{
			PollMaxAttempts:    10,
			PollInterval:       3 * time.Second,
			MaxConcurrentPolls: 8,
		},
		SnapshotTTL: time.Minute,
	}
	ctx := context.Background()
	if err := viper.ReadInConfig(); err != nil {
		log.Error(ctx, "error loading config file", "err", err)
	}

	if err := viper.Unmarshal(config); err != nil {
		log.Error(ctx, "error unmarshalling config file", "err", err)
	}
	checkEnvVars(ctx, config)
	return config, nil
}

func bindEnv() {
	viper.SetEnvPrefix("PASSPORT")
	_ = viper.BindEnv("ServerUrl", "PASSPORT_SERVER_URL")
	_ = viper.BindEnv("ServerPort", "PASSPORT_SERVER_PORT")
	_ = viper.BindEnv("Mode", "PASSPORT_MODE")
	_ = viper.BindEnv("SnapshotTTL", "PASSPORT_SNAPSHOT_TTL")

	_ = viper.BindEnv("Database.Url", "PASSPORT_DATABASE_URL")

	_ = viper.BindEnv("Cache.RedisUrl", "PASSPORT_REDIS_URL")

	_ = viper.BindEnv("Log.Level", "PASSPORT_LOG_LEVEL")
	_ = viper.BindEnv("Log.Mode", "PASSPORT_LOG_MODE")

	_ = viper.BindEnv("Chain.RpcUrl", "PASSPORT_CHAIN_RPC_URL")
	_ = viper.BindEnv("Chain.RpcResponseTimeout", "PASSPORT_CHAIN_RPC_RESPONSE_TIMEOUT")

	_ = viper.BindEnv("Scorer.Url", "PASSPORT_SCORER_URL")
	_ = viper.BindEnv("Scorer.ScorerId", "PASSPORT_SCORER_ID")
	_ = viper.BindEnv("Scorer.ApiKey", "PASSPORT_SCORER_API_KEY")
	_ = viper.BindEnv("Scorer.ResponseTimeout", "PASSPORT_SCORER_RESPONSE_TIMEOUT")

	_ = viper.BindEnv("Granter.Url", "PASSPORT_GRANTER_URL")
	_ = viper.BindEnv("Granter.Token", "PASSPORT_GRANTER_TOKEN")

	_ = viper.BindEnv("Roles.Verified", "PASSPORT_ROLE_VERIFIED")
	_ = viper.BindEnv("Roles.HighScore", "PASSPORT_ROLE_HIGH_SCORE")

	_ = viper.BindEnv("Verification.MinimumScore", "PASSPORT_MINIMUM_SCORE")
	_ = viper.BindEnv("Verification.HighScoreThreshold", "PASSPORT_HIGH_SCORE_THRESHOLD")
	_ = viper.BindEnv("Verification.PollMaxAttempts", "PASSPORT_POLL_MAX_ATTEMPTS")
	_ = viper.BindEnv("Verification.PollInterval", "PASSPORT_POLL_INTERVAL")
	_ = viper.BindEnv("Verification.MaxConcurrentPolls", "PASSPORT_MAX_CONCURRENT_POLLS")

	viper.AutomaticEnv()
}

func checkEnvVars(ctx context.Context, cfg *Configuration) {
	if cfg.ServerURL == "" {
		log.Info(ctx, "PASSPORT_SERVER_URL value is missing")
	}

	if cfg.ServerPort == 0 {
		log.Info(ctx, "PASSPORT_SERVER_PORT value is missing")
	}

	if cfg.Database.URL == "" {
		log.Info(ctx, "PASSPORT_DATABASE_URL value is missing")
	}

	if cfg.Cache.RedisURL == "" {
		log.Info(ctx, "PASSPORT_REDIS_URL value is missing")
	}

	if cfg.Chain.RPCURL == "" {
		log.Info(ctx, "PASSPORT_CHAIN_RPC_URL value is missing")
	}

	if cfg.Scorer.URL == "" {
		log.Info(ctx, "PASSPORT_SCORER_URL value is missing")
	}

	if cfg.Scorer.ScorerID == "" {
		log.Info(ctx, "PASSPORT_SCORER_ID value is missing")
	}

	if cfg.Scorer.APIKey == "" {
		log.Info(ctx, "PASSPORT_SCORER_API_KEY value is missing")
	}

	if cfg.Granter.URL == "" {
		log.Info(ctx, "PASSPORT_GRANTER_URL value is missing")
	}

	if cfg.Roles.Verified == "" {
		log.Info(ctx, "PASSPORT_ROLE_VERIFIED value is missing")
	}

	if cfg.Verification.MinimumScore == 0 {
		log.Info(ctx, "PASSPORT_MINIMUM_SCORE value is missing or is 0")
	}
}

func getWorkingDirectory() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(b), "../..") + "/"
}
