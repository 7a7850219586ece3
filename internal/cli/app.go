package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowedit/internal/telemetry"
)

// App — корневая команда flowedit вместе с её метриками.
type App struct {
	root    *cobra.Command
	metrics *telemetry.Metrics
	stderr  io.Writer

	jsonOutput  bool
	dumpMetrics bool
}

// NewApp создаёт CLI. stdout получает данные, stderr — сообщения, логи и метрики.
func NewApp(version string, stdout, stderr io.Writer) *App {
	app := &App{
		metrics: telemetry.NewMetrics(),
		stderr:  stderr,
	}

	root := &cobra.Command{
		Use:           "flowedit",
		Short:         "flowedit — validate, order and edit workflow DAGs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := telemetry.SetupLogger(stderr)
			cmd.SetContext(telemetry.WithLogger(cmd.Context(), logger))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVar(&app.dumpMetrics, "metrics", false, "Print Prometheus metrics to stderr on exit")

	outputFn := func() *Output { return NewOutput(app.jsonOutput, stdout, stderr) }

	root.AddCommand(
		NewValidateCmd(outputFn, app.metrics),
		NewSortCmd(outputFn),
		NewApplyCmd(outputFn, app.metrics),
		NewToolsCmd(outputFn),
	)

	app.root = root
	return app
}

// Run выполняет команду с аргументами args.
// Метрики выводятся и при ошибке команды.
func (a *App) Run(args []string) error {
	a.root.SetArgs(args)
	err := a.root.Execute()

	if a.dumpMetrics {
		if werr := a.metrics.WriteText(a.stderr); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// Metrics возвращает метрики приложения.
func (a *App) Metrics() *telemetry.Metrics {
	return a.metrics
}
