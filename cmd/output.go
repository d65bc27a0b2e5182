package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func tagColor(tag act.LogTag) func(a ...interface{}) string {
	switch tag {
	case act.TagError:
		return red
	case act.TagWarning:
		return yellow
	case act.TagSuccess:
		return green
	default:
		return cyan
	}
}

func printLog(w io.Writer, entries []act.LogEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s\n", tagColor(e.Tag)(fmt.Sprintf("[%s]", e.Tag)), e.Message)
	}
}

func printPlan(w io.Writer, reg *act.Registry, steps []act.Step) {
	for i, step := range steps {
		desc := step.Type
		if info, ok := reg.StepInfo(step.Type); ok {
			if d, err := info.Description(step); err == nil {
				desc = d
			}
		}
		fmt.Fprintf(w, "%s %s %s\n", gray(fmt.Sprintf("%3d.", i+1)), bold(step.Type), desc)
	}
}

func printResults(w io.Writer, results []runner.StepResult) {
	for _, r := range results {
		mark := green("ok")
		if r.Outcome != act.OutcomeCompleted {
			mark = red(string(r.Outcome))
		}
		line := fmt.Sprintf("%s %s %s %s", gray(fmt.Sprintf("%3d.", r.Index+1)), mark, r.Description, gray(r.Elapsed.Round(time.Millisecond).String()))
		if r.Message != "" {
			line += " " + yellow(r.Message)
		}
		fmt.Fprintln(w, line)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
