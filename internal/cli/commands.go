package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/flowedit/internal/domain"
	"github.com/shaiso/flowedit/internal/engine"
	"github.com/shaiso/flowedit/internal/telemetry"
)

// ValidationReport — результат validate в JSON режиме.
type ValidationReport struct {
	File   string `json:"file"`
	Valid  bool   `json:"valid"`
	Steps  int    `json:"steps"`
	Error  string `json:"error,omitempty"`
	StepID string `json:"stepId,omitempty"`
	Field  string `json:"field,omitempty"`
}

// maxParallelValidations — сколько файлов validate проверяет одновременно.
const maxParallelValidations = 4

// NewValidateCmd создаёт команду validate.
//
// Несколько --dag проверяются параллельно, отчёты выводятся в порядке флагов.
func NewValidateCmd(outputFn func() *Output, metrics *telemetry.Metrics) *cobra.Command {
	var dagFiles []string
	var toolsFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate one or more workflow DAGs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			base := telemetry.FromContext(cmd.Context())

			tools, err := LoadCatalog(toolsFile)
			if err != nil {
				return err
			}

			reports := make([]ValidationReport, len(dagFiles))
			verrs := make([]error, len(dagFiles))

			var g errgroup.Group
			g.SetLimit(maxParallelValidations)
			for i, path := range dagFiles {
				g.Go(func() error {
					dag, err := LoadDAG(path)
					if err != nil {
						return err
					}
					reports[i], verrs[i] = validateFile(telemetry.WithWorkflow(base, path), path, dag, tools)
					metrics.ObserveValidation(verrs[i])
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if out.JSONMode() {
				var werr error
				if len(reports) == 1 {
					werr = out.JSON(reports[0])
				} else {
					werr = out.JSON(reports)
				}
				if werr != nil {
					return werr
				}
			} else {
				for _, r := range reports {
					if r.Valid {
						out.Success(fmt.Sprintf("Workflow is valid: %d steps", r.Steps))
					}
				}
			}

			return errors.Join(verrs...)
		},
	}

	cmd.Flags().StringSliceVar(&dagFiles, "dag", nil, "Path to workflow DAG file, JSON or YAML (required, repeatable)")
	cmd.Flags().StringVar(&toolsFile, "tools", "", "Path to tool catalog file")
	cmd.MarkFlagRequired("dag")

	return cmd
}

// validateFile проверяет один DAG и строит отчёт.
func validateFile(logger *slog.Logger, path string, dag *domain.WorkflowDAG, tools []domain.WorkflowToolRef) (ValidationReport, error) {
	report := ValidationReport{File: path, Steps: len(dag.Steps)}

	verr := engine.Validate(dag, tools)
	if verr == nil {
		logger.Info("workflow is valid", "steps", report.Steps)
		report.Valid = true
		return report, nil
	}

	logger.Warn("workflow is invalid", "error", verr)
	report.Error = verr.Error()
	var ve *engine.ValidationError
	if errors.As(verr, &ve) {
		report.StepID = ve.StepID
		report.Field = ve.Field
	}
	return report, fmt.Errorf("%s: %w", path, verr)
}

// NewSortCmd создаёт команду sort.
func NewSortCmd(outputFn func() *Output) *cobra.Command {
	var dagFile string

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Print workflow steps in execution order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := telemetry.WithWorkflow(telemetry.FromContext(cmd.Context()), dagFile)

			dag, err := LoadDAG(dagFile)
			if err != nil {
				return err
			}

			report := engine.SortWithReport(dag.Steps)
			if !report.Complete() {
				logger.Warn("workflow has a cycle, order is partial", "unsorted", report.Unsorted)
				out.Warn("cyclic dependencies, unordered steps: " + strings.Join(report.Unsorted, ", "))
			}

			return out.Print(stepHeaders, stepRows(report.Steps), domain.WorkflowDAG{Steps: report.Steps})
		},
	}

	cmd.Flags().StringVar(&dagFile, "dag", "", "Path to workflow DAG file, JSON or YAML (required)")
	cmd.MarkFlagRequired("dag")

	return cmd
}

// NewApplyCmd создаёт команду apply.
func NewApplyCmd(outputFn func() *Output, metrics *telemetry.Metrics) *cobra.Command {
	var dagFile, callsFile, toolsFile, outFile string
	var sorted bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of tool calls to a workflow DAG",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := telemetry.WithWorkflow(telemetry.FromContext(cmd.Context()), dagFile)

			dag, err := LoadDAG(dagFile)
			if err != nil {
				return err
			}
			calls, err := LoadToolCalls(callsFile)
			if err != nil {
				return err
			}
			tools, err := LoadCatalog(toolsFile)
			if err != nil {
				return err
			}

			result, err := engine.ApplyToolCalls(engine.ApplyParams{
				DAG:            dag,
				ToolCalls:      calls,
				AvailableTools: tools,
				IDGenerator:    engine.NewStepID,
				Logger:         logger,
				Observer:       metrics,
			})
			if err != nil {
				return err
			}

			if sorted {
				result = engine.SortDAG(result)
			}

			if outFile != "" {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				if err := os.WriteFile(outFile, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outFile, err)
				}
				out.Success(fmt.Sprintf("Applied %d tool calls, %d steps written to %s", len(calls), len(result.Steps), outFile))
				return nil
			}

			out.Success(fmt.Sprintf("Applied %d tool calls", len(calls)))
			if out.JSONMode() {
				return out.JSON(result)
			}
			// Таблица всегда в порядке выполнения
			return out.Table(stepHeaders, stepRows(engine.Sort(result.Steps)))
		},
	}

	cmd.Flags().StringVar(&dagFile, "dag", "", "Path to workflow DAG file, JSON or YAML (required)")
	cmd.Flags().StringVar(&callsFile, "calls", "", "Path to tool call batch file, JSON or YAML (required)")
	cmd.Flags().StringVar(&toolsFile, "tools", "", "Path to tool catalog file")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the resulting DAG to this file")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "Store steps in execution order")
	cmd.MarkFlagRequired("dag")
	cmd.MarkFlagRequired("calls")

	return cmd
}

// NewToolsCmd создаёт команду tools.
func NewToolsCmd(outputFn func() *Output) *cobra.Command {
	var toolsFile string

	cmd := &cobra.Command{
		Use:   "tools [REF...]",
		Short: "List the tool catalog or resolve tool references (id or id@version)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			catalog, err := LoadCatalog(toolsFile)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				rows := make([][]string, len(catalog))
				for i, t := range catalog {
					rows[i] = []string{t.ID, dashIfEmpty(t.Name), dashIfEmpty(t.Version)}
				}
				return out.Print([]string{"ID", "NAME", "VERSION"}, rows, catalog)
			}

			type resolution struct {
				Ref      string                 `json:"ref"`
				Resolved domain.WorkflowToolRef `json:"resolved"`
				Found    bool                   `json:"found"`
			}

			results := make([]resolution, len(args))
			rows := make([][]string, len(args))
			for i, arg := range args {
				resolved, found := engine.ResolveToolRef(ParseToolRef(arg), catalog)
				results[i] = resolution{Ref: arg, Resolved: resolved, Found: found}
				rows[i] = []string{arg, resolved.Key(), dashIfEmpty(resolved.Name), fmt.Sprint(found)}
			}
			return out.Print([]string{"REF", "RESOLVED", "NAME", "FOUND"}, rows, results)
		},
	}

	cmd.Flags().StringVar(&toolsFile, "tools", "", "Path to tool catalog file (required)")
	cmd.MarkFlagRequired("tools")

	return cmd
}
