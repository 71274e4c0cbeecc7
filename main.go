package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("JSONSHAPE")
	viper.AutomaticEnv()

	log := logrus.New()
	if err := setupLogging(log); err != nil {
		log.WithError(err).Error("could not init logging")
		os.Exit(1)
	}

	cmd := newRootCommand(log)
	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func setupLogging(log *logrus.Logger) error {
	level := viper.GetString("log")
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
