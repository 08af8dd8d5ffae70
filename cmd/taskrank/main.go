// Package main provides taskrank, which filters and ranks a JSON task
// snapshot the same way GET /tasks does.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chepyr/go-task-planner/internal/ranking"
	"github.com/chepyr/go-task-planner/shared/models"
	flag "github.com/spf13/pflag"
)

type options struct {
	file     string
	query    ranking.Query
	now      time.Time
	asJSON   bool
	showPage bool
}

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}

func run(in io.Reader, out, errOut io.Writer, args []string) int {
	opts, code := parseFlags(out, errOut, args)
	if code >= 0 {
		return code
	}

	tasks, err := readTasks(in, opts.file)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	page := ranking.Apply(tasks, opts.query, opts.now)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		var v any = page.Tasks
		if opts.showPage {
			v = page
		}

		if err := enc.Encode(v); err != nil {
			fmt.Fprintln(errOut, "error:", err)

			return 1
		}

		return 0
	}

	for _, t := range page.Tasks {
		fmt.Fprintln(out, formatLine(t, opts.now))
	}

	if opts.showPage {
		fmt.Fprintf(out, "page %d/%d (%d tasks)\n", page.Page, page.Pages, page.Total)
	}

	return 0
}

// parseFlags returns -1 as the code when the command should go on.
func parseFlags(out, errOut io.Writer, args []string) (options, int) {
	flagSet := flag.NewFlagSet("taskrank", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	file := flagSet.StringP("file", "f", "", "Read tasks from file instead of stdin")
	status := flagSet.String("status", "", "Filter by status (all|pending|completed)")
	priority := flagSet.String("priority", "", "Filter by priority (all|low|medium|high)")
	category := flagSet.String("category", "", "Filter by exact category")
	sortMode := flagSet.String("sort", "", "Sort mode (smart|deadline|priority|added)")
	page := flagSet.Int("page", 1, "Page number, 1-based")
	limit := flagSet.Int("limit", 0, "Tasks per page, 0 shows all")
	nowStr := flagSet.String("now", "", "Reference time (RFC3339), defaults to the current time")
	asJSON := flagSet.Bool("json", false, "Print JSON instead of a table")
	help := flagSet.BoolP("help", "h", false, "Show help")

	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return options{}, 1
	}

	if *help {
		fmt.Fprintln(out, "Usage: taskrank [options] [< tasks.json]")
		fmt.Fprintln(out, "")
		fmt.Fprint(out, flagSet.FlagUsages())

		return options{}, 0
	}

	criteria, err := ranking.ParseCriteria(*status, *priority, *category)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return options{}, 1
	}

	mode, ok := ranking.ParseSortMode(*sortMode)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown sort mode %q\n", *sortMode)

		return options{}, 1
	}

	if *page < 1 || *limit < 0 {
		fmt.Fprintln(errOut, "error: --page must be positive and --limit non-negative")

		return options{}, 1
	}

	now := time.Now()
	if *nowStr != "" {
		if now, err = time.Parse(time.RFC3339, *nowStr); err != nil {
			fmt.Fprintln(errOut, "error: --now:", err)

			return options{}, 1
		}
	}

	return options{
		file: *file,
		query: ranking.Query{
			Criteria: criteria,
			Mode:     mode,
			Page:     *page,
			Limit:    *limit,
		},
		now:      now,
		asJSON:   *asJSON,
		showPage: flagSet.Changed("page") || flagSet.Changed("limit"),
	}, -1
}

var errNoTasks = errors.New("input is neither a task array nor an object with a tasks field")

// readTasks accepts a bare array or the paginated {"tasks": [...]} shape.
func readTasks(stdin io.Reader, file string) ([]models.Task, error) {
	var (
		data []byte
		err  error
	)
	if file != "" && file != "-" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var tasks []models.Task
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("decoding tasks: %w", err)
		}
		return tasks, nil
	case '{':
		var wrapped struct {
			Tasks *[]models.Task `json:"tasks"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding tasks: %w", err)
		}
		if wrapped.Tasks == nil {
			return nil, errNoTasks
		}
		return *wrapped.Tasks, nil
	default:
		return nil, errNoTasks
	}
}

func formatLine(t models.Task, now time.Time) string {
	var b strings.Builder

	if t.Status.IsCompleted() {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}

	fmt.Fprintf(&b, "%-6s ", t.Priority)

	switch {
	case t.Status.IsCompleted():
		b.WriteString("         ")
	case ranking.IsOverdue(t, now):
		b.WriteString("OVERDUE  ")
	case ranking.IsDueSoon(t, now):
		b.WriteString("DUE SOON ")
	default:
		b.WriteString("         ")
	}

	b.WriteString(t.Title)

	if t.Category != "" {
		fmt.Fprintf(&b, " #%s", t.Category)
	}

	return b.String()
}
