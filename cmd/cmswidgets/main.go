// Command cmswidgets loads bundle definitions and a record store, serves the
// choices endpoints and demo forms, and resolves relation links from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// current is the application assembled by PersistentPreRunE.
	current *app
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cmswidgets",
	Short: "Relation widgets and choices endpoints for admin bundles",
	Long: `cmswidgets loads model, bundle and form definitions from a directory,
connects a record store, and either serves the admin choices endpoints or
resolves relation links for a user from the command line.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./cmswidgets.yaml)")
	flags.String(cfgKeyDefinitions, defaultDefinitions, "directory holding model, bundle and form definitions")
	flags.String(cfgKeyStore, defaultStore, "record store: memory, sqlite or postgres")
	flags.String(cfgKeyDSN, "", "data source name for the sqlite or postgres store")
	flags.String(cfgKeyAuthorizer, defaultAuthorizer, "permission check: groups or casbin")
	flags.String(cfgKeyMount, defaultMount, "admin mount path")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cmswidgets v0.1.0")
	},
}

func initApp(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	v, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	settings, err := readSettings(v)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	a, err := buildApp(cmd.Context(), settings)
	if err != nil {
		return err
	}
	current = a
	return nil
}

func closeApp() error {
	if current == nil {
		return nil
	}
	err := current.Close()
	current = nil
	return err
}
