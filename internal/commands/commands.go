// Package commands 实现 querydesk 命令行。
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/querydesk-go/application"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// 进程退出码。
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalidData = 2
	ExitInterrupted = 130
)

// ExitCode 将命令返回的错误映射为退出码：输入数据错误为 2，被取消或超时为 130。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case merr.IsCanceledOrTimeout(err):
		return ExitInterrupted
	case merr.GetErrorType(err) == merr.InputError:
		return ExitInvalidData
	}
	return ExitFailure
}

// New 构造根命令。app 在任意子命令执行前按 --config 加载配置。
func New(app *application.Application) *cobra.Command {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:           "querydesk",
		Short:         "Validate, convert and inspect querydesk wire models.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Run(configPath); err != nil {
				return err
			}
			if logLevel != "" {
				level, err := zapcore.ParseLevel(logLevel)
				if err != nil {
					return err
				}
				log.SetLevel(level)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = app.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path, overrides $"+application.ConfigPathEnv+" and ./querydesk.yaml.")

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level.")

	AddCommands(cmd, app)
	return cmd
}

func AddCommands(topLevel *cobra.Command, app *application.Application) {
	addModels(topLevel)
	addDecode(topLevel)
	addValidate(topLevel)
	addHistory(topLevel, app)
	addServer(topLevel, app)
	addVersion(topLevel)
}
