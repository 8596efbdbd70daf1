package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "assessrec"
)

type Config struct {
	Catalog *CatalogConfig `mapstructure:"catalog"`
	Server  *ServerConfig  `mapstructure:"server"`
	History *HistoryConfig `mapstructure:"history"`
	Gemini  *GeminiConfig  `mapstructure:"gemini"`
}

type CatalogConfig struct {
	DBPath    string `mapstructure:"db-path"`
	SeedFile  string `mapstructure:"seed-file"`
	ScrapeURL string `mapstructure:"scrape-url"`
	Workers   int    `mapstructure:"workers"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db-path"`
}

type GeminiConfig struct {
	APIKeyFile    string  `mapstructure:"api-key-file"`
	Model         string  `mapstructure:"model"`
	MaxRetries    int     `mapstructure:"max-retries"`
	MaxConcurrent int     `mapstructure:"max-concurrent"`
	RateLimit     float64 `mapstructure:"rate-limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessrec recommends standardized assessments for a role described in free text or a job posting",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessrec.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command does not need a config at all.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
