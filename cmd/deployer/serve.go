package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"deployer/internal/project"
	"deployer/internal/security"
	"deployer/internal/server"
	"deployer/pkg/fileutil"
)

const (
	projectsFileName = "projects.yaml"
	shutdownTimeout  = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the plan server",
	Long: `Start the HTTP server that answers deployment plan requests and GitHub
push webhooks for the projects listed in projects.yaml.

The server only reports what a push would deploy; it never runs anything.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("projects", "", "Path to projects.yaml (searched in default locations when empty)")
	serveCmd.Flags().String("log", "./deployer.log", "Path to log file")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntP("port", "p", 5000, "Port to listen on")
	serveCmd.Flags().Bool("test-mode", false, "Enable test mode (disables rate limiting)")

	_ = viper.BindPFlag("projects_file", serveCmd.Flags().Lookup("projects"))
	_ = viper.BindPFlag("log_file", serveCmd.Flags().Lookup("log"))
	_ = viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("test_mode", serveCmd.Flags().Lookup("test-mode"))
}

func runServe(cmd *cobra.Command, args []string) error {
	projectsFile, err := resolveProjectsFile(viper.GetString("projects_file"))
	if err != nil {
		return err
	}

	logger, logFileHandle, err := setupServerLogging(viper.GetString("log_file"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFileHandle.Close()

	logger.Info().Str("version", version).Msg("Starting deployer")

	// The registry holds webhook secrets.
	if err := security.ValidateSecurePermissions(projectsFile); err != nil {
		logger.Warn().Err(err).Msg("Projects file permissions are too open")
	}

	logger.Info().Str("config", projectsFile).Msg("Loading configuration")
	_, projects, err := project.LoadConfig(projectsFile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load configuration").
			WithCause(err)
	}

	logger.Info().Int("count", len(projects)).Msg("Configuration validated successfully")
	if len(projects) == 0 {
		logger.Warn().Str("config", projectsFile).Msg("No projects configured, the server will answer health checks only")
	}

	srv := server.NewServer(project.NewRegistry(projects, projectsFile), logger, viper.GetBool("test_mode"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	if err := srv.Start(viper.GetString("host"), viper.GetInt("port")); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}

// resolveProjectsFile returns path, or the first projects.yaml found in the
// default locations when path is empty.
func resolveProjectsFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	searchPaths := fileutil.DefaultConfigPaths(projectsFileName)
	found, err := fileutil.SearchPaths(searchPaths)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no %s found in default locations %v, use --projects", projectsFileName, searchPaths)).
			WithCause(err)
	}
	return found, nil
}

// setupServerLogging writes JSON logs to stdout and the log file.
// Returns both the logger and the file handle (caller must close the file)
func setupServerLogging(logPath string) (zerolog.Logger, *os.File, error) {
	file, err := security.OpenLogFile(logPath)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	logger := zerolog.New(io.MultiWriter(os.Stdout, file)).
		With().
		Timestamp().
		Str("service", "deployer").
		Logger()

	return logger, file, nil
}
