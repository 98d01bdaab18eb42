// Package operations runs the chart pipeline as a sequence of steps.
//
// A run loads the input file, cleans it once and then executes one step per
// configured chart job against the cleaned table, followed by the workbook
// export. Chart steps share a cached Selector, so identical filters are
// evaluated once per run, and may run concurrently up to the configured
// number of workers.
//
// Core Components:
//
// Manager: builds the steps of a run, executes them in order and returns a
// RunResult. The first failing step aborts the run; steps that did not start
// are marked skipped.
//
// Step: one unit of work (LoadStep, CleanStep, ChartStep, ExportStep). Steps
// exchange data through the OperationState of the run.
//
// Registry: holds the steps of a run in execution order.
//
// Example usage:
//
//	manager, err := operations.NewManager(cfg.Pipeline, paths, telemetry)
//	if err != nil {
//		return err
//	}
//	result, err := manager.Run(ctx, "pumpkins.csv")
package operations
