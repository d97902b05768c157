package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var rootCmd = &cobra.Command{
	Use:   "donations",
	Short: "Donations microservice",
	Long:  "A donations microservice for PIX charges, coupon discounts, donor emails and the admin back office.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logrus.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	return nil
}
