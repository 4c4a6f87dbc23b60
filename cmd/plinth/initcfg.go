package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively scaffold a config.yaml",
	Long: `Walk through the configuration options and write a config.yaml in the
current directory. Existing files are not overwritten unless --force is set.`,
	RunE: runInit,
}

var forceInit bool

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	const path = "config.yaml"

	if !forceInit {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	backendPrompt := promptui.Select{
		Label: "Database backend",
		Items: []string{"sqlite", "postgresql", "mysql"},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return fmt.Errorf("select backend: %w", err)
	}

	dbSection := map[string]any{"backend": backend}

	switch backend {
	case "sqlite":
		dbPath, err := promptString("Database file path", "database_sqlite.db", nil)
		if err != nil {
			return err
		}
		dbSection["sqlite"] = map[string]any{"path": dbPath}

	case "postgresql":
		section, err := promptCredentials("postgres", 5432)
		if err != nil {
			return err
		}
		dbSection["postgres"] = section

	case "mysql":
		section, err := promptCredentials("mysql", 3306)
		if err != nil {
			return err
		}
		dbSection["mysql"] = section
	}

	portStr, err := promptString("HTTP server port", "8000", validatePort)
	if err != nil {
		return err
	}
	port, _ := strconv.Atoi(portStr)

	cfg := map[string]any{
		"server":   map[string]any{"port": port},
		"database": dbSection,
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("wrote %s (backend: %s)\n", path, backend)
	return nil
}

func promptCredentials(label string, defaultPort int) (map[string]any, error) {
	user, err := promptString(label+" user", "", nil)
	if err != nil {
		return nil, err
	}

	passwordPrompt := promptui.Prompt{
		Label: label + " password",
		Mask:  '*',
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt password: %w", err)
	}

	host, err := promptString(label+" host", "localhost", nil)
	if err != nil {
		return nil, err
	}
	portStr, err := promptString(label+" port", strconv.Itoa(defaultPort), validatePort)
	if err != nil {
		return nil, err
	}
	port, _ := strconv.Atoi(portStr)

	dbName, err := promptString(label+" database name", "", nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"user":     user,
		"password": password,
		"host":     host,
		"port":     port,
		"database": dbName,
	}, nil
}

func promptString(label, defaultValue string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", label, err)
	}
	return value, nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
