package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Manu343726/lc2k/cmd/cpu"
	"github.com/Manu343726/lc2k/cmd/tools"
	"github.com/Manu343726/lc2k/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var cfgFile string

// Closes the log file, if any
var closeLog = func() error { return nil }

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "lc2k",
	Short: "An emulator and debugger for the LC-2K instruction set",
	Long: `lc2k is an emulator for LC-2K, the 8 register word addressed teaching ISA.

This CLI is the entry point for the emulator, the interactive debugger and the
assembler tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupOutput()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(cpu.CpuCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lc2k.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Append JSON log records to this file")
	flags.Bool("no-color", false, "Disable colored output")

	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.file", flags.Lookup("log-file")))
	cobra.CheckErr(viper.BindPFlag("no_color", flags.Lookup("no-color")))

	viper.SetDefault("color", "auto")
	viper.SetDefault("debug.prompt", "(lc2k) ")
	viper.SetDefault("debug.history_file", defaultHistoryFile())
	viper.SetDefault("exec.max_steps", 0)
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lc2k_history"
	}
	return filepath.Join(home, ".lc2k_history")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".lc2k" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lc2k")
	}

	viper.SetEnvPrefix("LC2K")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Configures colors and the default logger from the loaded configuration
func setupOutput() error {
	switch viper.GetString("color") {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
	}
	if viper.GetBool("no_color") {
		color.NoColor = true
	}

	logger, closer, err := logging.Setup(logging.Options{
		Level: viper.GetString("log.level"),
		File:  viper.GetString("log.file"),
	})
	if err != nil {
		return err
	}

	closeLog = closer
	slog.SetDefault(logger)
	return nil
}
