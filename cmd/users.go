package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminFullName string
	adminPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage back-office users",
}

var usersCreateAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user, or promote an existing one and reset its password",
	Run:   runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateAdminCmd)

	usersCreateAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	usersCreateAdminCmd.Flags().StringVar(&adminFullName, "name", "", "Admin full name")
	usersCreateAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (defaults to ADMIN_PASSWORD)")
	_ = usersCreateAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(_ *cobra.Command, _ []string) {
	_, svc, cleanup := mustCreateServices()
	defer cleanup()

	password := adminPassword
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := svc.users.EnsureAdmin(ctx, adminEmail, adminFullName, password)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create admin user")
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("Admin user ready")
}
