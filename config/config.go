package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Grading      Grading
	Sweeper      Sweeper
	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Grading struct {
	Model string
}

type Sweeper struct {
	IntervalSeconds int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("GRADING_MODEL", "gemini-1.5-flash")
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Grading.Model = viper.GetString("GRADING_MODEL")
	config.Sweeper.IntervalSeconds = viper.GetInt("SWEEP_INTERVAL_SECONDS")

	log.Info().Str("port", config.Server.Port).Str("db_host", config.Database.Host).Msg("Config loaded")
	return &config, nil
}
