package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/prevtech/internal/db"
	"github.com/tgienger/prevtech/internal/log"
	"github.com/tgienger/prevtech/internal/permissions"
	"github.com/tgienger/prevtech/internal/tasks"
	"github.com/tgienger/prevtech/internal/ui"
	"github.com/tgienger/prevtech/internal/workflow"
	cli "github.com/urfave/cli/v3"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:  "prevtech",
		Usage: "Task and permission manager for the PrevTech legal office",
		Commands: []*cli.Command{
			NewTemplatesCommand(),
			NewPermissionsCommand(),
			NewVersionCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the SQLite database (default: $XDG_DATA_HOME/prevtech/prevtech.db)",
				Sources: cli.EnvVars("PREVTECH_DB"),
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML file replacing the built-in workflow templates",
				Sources: cli.EnvVars("PREVTECH_CATALOG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Log file (default: prevtech.log beside the database)",
				Sources: cli.EnvVars("PREVTECH_LOG_FILE"),
			},
		},
		Action: runTUI,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(ctx context.Context, command *cli.Command) error {
	dbPath, err := databasePath(command)
	if err != nil {
		return err
	}

	logPath := command.String("log-file")
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(dbPath), "prevtech.log")
	}
	logFile, err := log.OpenFile(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log.Setup(command.String("log-level"), logFile)

	logger := log.WithModule("main")

	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	catalog, err := loadCatalog(command)
	if err != nil {
		return err
	}

	matrix, err := database.LoadPermissions(permissions.DefaultMatrix())
	if err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	logger.Info("starting", "version", version, "db", dbPath, "templates", catalog.Len())

	svc := tasks.NewService(database, catalog, log.WithModule("tasks"))
	app := ui.NewApp(database, svc, matrix, log.WithModule("ui"))
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run application: %w", err)
	}
	return nil
}

func databasePath(command *cli.Command) (string, error) {
	if path := command.String("db"); path != "" {
		return path, nil
	}
	return db.DefaultPath()
}

func openDatabase(command *cli.Command) (*db.DB, error) {
	path, err := databasePath(command)
	if err != nil {
		return nil, err
	}
	database, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}

func loadCatalog(command *cli.Command) (*workflow.Catalog, error) {
	path := command.String("catalog")
	if path == "" {
		return workflow.DefaultCatalog(), nil
	}
	catalog, err := workflow.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return catalog, nil
}
