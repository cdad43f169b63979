// Package cmd 提供 securesvc CLI 的命令框架
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"securesvc-core/internal/config/loader"
	"securesvc-core/internal/config/schema"
	"securesvc-core/internal/config/source"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/version"

	"github.com/spf13/cobra"
)

// 全局标志
var (
	configFile string
	logLevel   string
	logFile    string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "securesvc",
		Short: "Secure service handshake response router",
		Long: `securesvc routes protect-service results to the protocol engine and
forwards handshake responses for each multiplexed service.

Examples:
  securesvc replay scenario.yaml
  securesvc replay scenario.yaml --concurrent
  securesvc version`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug/info/warn/error")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file")

	root.AddCommand(newReplayCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute 执行根命令
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			corelog.Errorf("FATAL: main goroutine panic recovered: %v", r)
			fmt.Fprintf(os.Stderr, "\nPANIC: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(debug.Stack()))
			os.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*schema.Root, error) {
	cfg, err := loader.NewLoaderBuilder().
		WithConfigFile(configFile).
		WithCLI(&source.CLISource{LogLevel: logLevel, LogFile: logFile}).
		Build().
		Load()
	if err != nil {
		return nil, err
	}

	if _, err := corelog.Setup(&cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}
