// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scheme-workers/internal/common/config"
	"scheme-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

var registryPath string

var rootCmd = &cobra.Command{
	Use:           "registry-updater",
	Short:         "Maintain the activity registry of the scheme workers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var addCmd = &cobra.Command{
	Use:   "add [activity-id]",
	Short: "Add a new activity to the registry",
	Example: `  registry-updater add recommend-schemes --display-name "Recommend Schemes" \
    --description "Profile-driven recommendations" --surface recommend`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var updateCmd = &cobra.Command{
	Use:     "update [activity-id] [field] [value]",
	Short:   "Update an existing activity's field",
	Long:    `Fields: status, version, displayName, description, category, taskType, surface, timeout, retries.`,
	Example: `  registry-updater update recommend-schemes status completed`,
	Args:    cobra.ExactArgs(3),
	RunE:    runUpdate,
}

var validateCmd = &cobra.Command{
	Use:     "validate",
	Short:   "Validate the registry, optionally against a worker config",
	Example: `  registry-updater validate --config configs/config.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runValidate,
}

var (
	addDisplayName string
	addDescription string
	addCategory    string
	addTaskType    string
	addSurface     string
	addVersion     string
	addStatus      string
	addTimeout     string

	validateConfigPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&registryPath, "path", "p", defaultRegistryPath, "Path to registry file")

	addCmd.Flags().StringVar(&addDisplayName, "display-name", "", "Display name (e.g., Recommend Schemes)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Description")
	addCmd.Flags().StringVar(&addCategory, "category", "schemes", "Category")
	addCmd.Flags().StringVar(&addTaskType, "task-type", "", "Zeebe job type; defaults to the activity ID")
	addCmd.Flags().StringVar(&addSurface, "surface", "", "Ranking surface (search, match, recommend, notifications)")
	addCmd.Flags().StringVar(&addVersion, "version", "1.0.0", "Version")
	addCmd.Flags().StringVar(&addStatus, "status", "planned", "Implementation status (planned, in-progress, completed, verified)")
	addCmd.Flags().StringVar(&addTimeout, "timeout", "5s", "Job timeout")
	_ = addCmd.MarkFlagRequired("display-name")
	_ = addCmd.MarkFlagRequired("description")

	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "Worker config to cross-check (e.g., configs/config.yaml)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	id := args[0]
	taskType := addTaskType
	if taskType == "" {
		taskType = id
	}

	reg, err := registry.LoadRegistry(registryPath)
	if errors.Is(err, os.ErrNotExist) {
		reg, err = &registry.ActivityRegistry{Version: "1.0.0"}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	err = reg.Add(registry.Activity{
		ID:                   id,
		DisplayName:          addDisplayName,
		Description:          addDescription,
		Category:             addCategory,
		Version:              addVersion,
		TaskType:             taskType,
		ImplementationStatus: addStatus,
		Surface:              addSurface,
		InputSchema:          map[string]interface{}{},
		OutputSchema:         map[string]interface{}{},
		ErrorCodes:           []string{},
		Timeout:              addTimeout,
		Tags:                 []string{},
	})
	if err != nil {
		return err
	}
	if err := reg.Save(registryPath, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", id)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, field, value := args[0], args[1], args[2]

	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(id, field, value); err != nil {
		return err
	}
	if err := reg.Save(registryPath, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
	return nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var cfg *config.Config
	if validateConfigPath != "" {
		if cfg, err = config.LoadFromFile(validateConfigPath); err != nil {
			return err
		}
	}

	if err := reg.Validate(cfg); err != nil {
		return fmt.Errorf("registry validation failed:\n%w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}
