// Command trackerctl reads and edits AI impact entries through the tracker
// API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/cli"
	"tracker/internal/client"
	"tracker/internal/config"
	"tracker/internal/core"
)

const usage = `usage: trackerctl [-api URL] <command> [flags]

commands:
  dashboard            totals, trends and per-pillar breakdowns
  list                 entries, newest first (-pillar KEY, -filter last-month|last-quarter|this-year)
  add                  create an entry (-pillar -task -time [-money -description -date])
  update ID            change the given fields of an entry
  delete ID            remove an entry
  clear -yes           remove every entry
  summary              overall totals
  watch                redraw the dashboard on every change
`

func main() {
	cli.LoadEnvFile()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, config.Load().APIURL)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, defaultAPI string) error {
	global := flag.NewFlagSet("trackerctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	apiURL := global.String("api", defaultAPI, "tracker API base URL")
	if err := global.Parse(args); err != nil || global.NArg() == 0 {
		fmt.Fprint(out, usage)
		if err != nil && !errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errors.New("missing command")
	}

	api, err := client.New(*apiURL)
	if err != nil {
		return err
	}
	tr := client.NewTracker(api)
	cmd, rest := global.Arg(0), global.Args()[1:]

	switch cmd {
	case "dashboard":
		if err := load(ctx, tr, *apiURL); err != nil {
			return err
		}
		renderDashboard(out, tr.Dashboard())
	case "list":
		return runList(ctx, tr, *apiURL, rest, out)
	case "add":
		return runAdd(ctx, api, rest, out)
	case "update":
		return runUpdate(ctx, api, rest, out)
	case "delete":
		id, err := parseIDArg(rest)
		if err != nil {
			return err
		}
		deleted, err := api.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		if !deleted {
			fmt.Fprintf(out, "Entry %d did not exist.\n", id)
			return nil
		}
		fmt.Fprintf(out, "Deleted entry %d.\n", id)
	case "clear":
		fs := flag.NewFlagSet("clear", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		yes := fs.Bool("yes", false, "confirm")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if !*yes {
			return errors.New("clear removes every entry; pass -yes to confirm")
		}
		if err := api.Clear(ctx); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		fmt.Fprintln(out, "Cleared all entries.")
	case "summary":
		s, err := api.Summary(ctx)
		if err != nil {
			return unreachable(*apiURL, err)
		}
		renderSummary(out, s)
	case "watch":
		if err := load(ctx, tr, *apiURL); err != nil {
			return err
		}
		renderDashboard(out, tr.Dashboard())
		err := tr.Watch(ctx, func(d aggregate.Dashboard) {
			fmt.Fprintf(out, "\n--- updated %s ---\n", time.Now().Format(time.Kitchen))
			renderDashboard(out, d)
		}, func(err error) {
			fmt.Fprintln(out, "refresh failed:", err)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// load never leaves an empty dashboard on screen: an unreachable API is an
// error.
func load(ctx context.Context, tr *client.Tracker, apiURL string) error {
	if err := tr.Load(ctx); err != nil {
		return unreachable(apiURL, err)
	}
	return nil
}

func unreachable(apiURL string, err error) error {
	return fmt.Errorf("cannot load data from %s: %w", apiURL, err)
}

func runList(ctx context.Context, tr *client.Tracker, apiURL string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pillar := fs.String("pillar", "", "pillar key, e.g. hr-operations")
	filter := fs.String("filter", "", "last-month, last-quarter or this-year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	preset, err := aggregate.ParsePreset(*filter)
	if err != nil {
		return err
	}
	if err := load(ctx, tr, apiURL); err != nil {
		return err
	}
	renderEntries(out, tr.History(*pillar, preset))
	return nil
}

// entryFlags binds the editable fields to fs.
type entryFlags struct {
	pillar, task, description, date *string
	timeSaved, moneySaved           *float64
}

func bindEntryFlags(fs *flag.FlagSet) entryFlags {
	return entryFlags{
		pillar:      fs.String("pillar", "", "pillar key or name"),
		task:        fs.String("task", "", "task automated"),
		description: fs.String("description", "", "optional details"),
		date:        fs.String("date", "", "YYYY-MM-DD"),
		timeSaved:   fs.Float64("time", 0, "hours saved per month"),
		moneySaved:  fs.Float64("money", 0, "money saved per month"),
	}
}

func runAdd(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := bindEntryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	date := core.DateOf(time.Now())
	if *f.date != "" {
		d, err := core.ParseDate(*f.date)
		if err != nil {
			return err
		}
		date = d
	}
	e := core.NewEntry{
		Pillar:      core.PillarDisplayName(*f.pillar),
		Task:        *f.task,
		Description: *f.description,
		TimeSaved:   *f.timeSaved,
		MoneySaved:  *f.moneySaved,
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		return err
	}

	created, err := api.Create(ctx, e)
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	fmt.Fprintf(out, "Created entry %d: %s, %s saved.\n", created.ID, created.Task, core.FormatHours(created.TimeSaved))
	return nil
}

func runUpdate(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	id, err := parseIDArg(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := bindEntryFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var p core.EntryPatch
	var parseErr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pillar":
			name := core.PillarDisplayName(*f.pillar)
			p.Pillar = &name
		case "task":
			p.Task = f.task
		case "description":
			p.Description = f.description
		case "time":
			p.TimeSaved = f.timeSaved
		case "money":
			p.MoneySaved = f.moneySaved
		case "date":
			d, err := core.ParseDate(*f.date)
			if err != nil {
				parseErr = err
				return
			}
			p.Date = &d
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if p.IsEmpty() {
		return core.ErrNoFields
	}

	updated, err := api.Update(ctx, id, p)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("entry %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(out, "Updated entry %d.\n", updated.ID)
	return nil
}

func parseIDArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("missing entry id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", args[0])
	}
	return id, nil
}
