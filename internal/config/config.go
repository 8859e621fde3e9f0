package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	SeedPath  string
	TokenTTL  int // hours
}

func Load() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("libraryhub")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "./data/library.db")
	viper.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	viper.SetDefault("auth.token_ttl_hours", 24)
	viper.SetDefault("seed.books_path", "./data/books.json")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("no config file found, using defaults")
	}

	return Config{
		Port:      viper.GetInt("server.port"),
		DBPath:    viper.GetString("database.path"),
		JWTSecret: viper.GetString("auth.jwt_secret"),
		SeedPath:  viper.GetString("seed.books_path"),
		TokenTTL:  viper.GetInt("auth.token_ttl_hours"),
	}
}
