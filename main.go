package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web"
	"github.com/yamdb/api-yamdb/web/service"
)

func initLogger() {
	logger.InitLogger(logger.ParseLevel(config.GetLogLevel()))
}

func initDB() error {
	return database.InitDB(config.GetDatabaseConfig())
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.CloseDB() }()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err: ", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err: ", err)
			}
			return
		}
	}
}

func migrateDb() {
	initLogger()
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.CloseDB() }()
	fmt.Println("migration done")
}

func createSuperuser(username, email string) {
	initLogger()
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.CloseDB() }()

	user, err := service.NewUserService(database.GetDB()).CreateSuperuser(context.Background(), username, email)
	if err != nil {
		fmt.Println("create superuser failed:", err)
		return
	}
	fmt.Printf("superuser %s <%s> ready; sign in through /api/v1/auth/signup/\n", user.Username, user.Email)
}

func setRole(username, role string) {
	initLogger()
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.CloseDB() }()

	user, err := service.NewUserService(database.GetDB()).SetRole(context.Background(), username, role)
	if err != nil {
		fmt.Println("set role failed:", err)
		return
	}
	fmt.Printf("%s is now %s\n", user.Username, user.Role)
}

func cleanAudit(days int) {
	initLogger()
	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = database.CloseDB() }()

	if days <= 0 {
		days = config.GetAuditRetentionDays()
	}
	n, err := service.NewAuditLogService(database.GetDB()).CleanOldLogs(context.Background(), days)
	if err != nil {
		fmt.Println("clean audit log failed:", err)
		return
	}
	fmt.Printf("removed %d audit entries older than %d days\n", n, days)
}

func main() {
	var envFile string

	var rootCmd = &cobra.Command{
		Use:     config.GetName(),
		Short:   "YaMDB review and rating API",
		Version: config.GetVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return config.LoadEnv()
			}
			return config.LoadEnv(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default .env)")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var superuserCmd = &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an admin account, or promote an existing one",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			createSuperuser(username, email)
		},
	}
	superuserCmd.Flags().String("username", "", "admin username")
	superuserCmd.Flags().String("email", "", "admin email")
	_ = superuserCmd.MarkFlagRequired("username")
	_ = superuserCmd.MarkFlagRequired("email")

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var roleCmd = &cobra.Command{
		Use:   "role <username> <user|moderator|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			setRole(args[0], args[1])
		},
	}
	userCmd.AddCommand(roleCmd)

	var auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Manage the audit log",
	}

	var cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Delete old audit entries",
		Run: func(cmd *cobra.Command, args []string) {
			days, _ := cmd.Flags().GetInt("days")
			cleanAudit(days)
		},
	}
	cleanCmd.Flags().Int("days", 0, "retention in days (default YAMDB_AUDIT_RETENTION_DAYS)")
	auditCmd.AddCommand(cleanCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, superuserCmd, userCmd, auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
