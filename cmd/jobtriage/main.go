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
	"strings"
	"syscall"

	"JobTriage/internal/app"
	"JobTriage/internal/config"
	"JobTriage/internal/domain"
	"JobTriage/internal/logging"
	"JobTriage/internal/usecase"
)

const usage = `usage: jobtriage <command> [flags] [args]

commands:
  list                                  show every queue
  watch                                 poll until nothing is in flight
  add [-page URL] [-base URL] <text|->  extract job links and submit them
  text [-title T] [-fix URL] <file|->   submit a posting's text for analysis
  status [-archive=true|false] URL STATUS
  retry URL                             re-queue a failed job
  rescan URL                            delete and resubmit a job
  fix -title T -company C URL <file|->  replace a job's content and re-analyse
  delete URL
  clear-history                         delete every archived job
  profile get|set resume|context [file|-]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobtriage: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application := app.New(cfg, logger)

	if err := run(ctx, application, os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, a *app.Application, command string, args []string, stdin io.Reader, out io.Writer) error {
	d := a.Dispatcher()
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch command {
	case "list":
		if err := d.Refresh(ctx); err != nil {
			return err
		}
		printQueues(out, d.Store().Snapshot())
		return nil

	case "watch":
		return a.Watch(ctx, func(s usecase.Snapshot) {
			printProgress(out, s)
		})

	case "add":
		page := fs.String("page", "", "listing page to scan for job links")
		base := fs.String("base", "", "base URL for relative links in pasted HTML")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		var (
			res domain.SubmitResult
			err error
		)
		if *page != "" {
			res, err = a.SubmitPage(ctx, *page)
		} else {
			content, rerr := readInput(fs.Args(), stdin, true)
			if rerr != nil {
				return rerr
			}
			res, err = a.SubmitContent(ctx, content, *base)
		}
		return reportSubmission(out, d, res, err)

	case "text":
		title := fs.String("title", "", "job title (default \"Manual job\")")
		fix := fs.String("fix", "", "link of the failed job this text replaces")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		content, err := readInput(fs.Args(), stdin, false)
		if err != nil {
			return err
		}
		if err := prime(ctx, d); err != nil {
			return err
		}
		err = d.SubmitFreeText(ctx, content, *title, *fix)
		return reportSubmission(out, d, domain.SubmitResult{Added: 1}, err)

	case "status":
		archive := fs.String("archive", "", "override the archive flag (true|false)")
		if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
			return errUsage
		}
		status, err := domain.ParseApplicationStatus(fs.Arg(1))
		if err != nil {
			return err
		}
		var override *bool
		if *archive != "" {
			v, err := strconv.ParseBool(*archive)
			if err != nil {
				return fmt.Errorf("archive: %w", err)
			}
			override = &v
		}
		if err := prime(ctx, d); err != nil {
			return err
		}
		return done(out, d.UpdateApplicationStatus(ctx, fs.Arg(0), status, override))

	case "retry", "rescan", "delete":
		if len(args) != 1 {
			return errUsage
		}
		if err := prime(ctx, d); err != nil {
			return err
		}
		switch command {
		case "retry":
			return done(out, d.Retry(ctx, args[0]))
		case "rescan":
			return done(out, d.Rescan(ctx, args[0]))
		default:
			return done(out, d.DeleteJob(ctx, args[0]))
		}

	case "fix":
		title := fs.String("title", "", "job title")
		company := fs.String("company", "", "company name")
		if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
			return errUsage
		}
		description, err := readInput(fs.Args()[1:], stdin, false)
		if err != nil {
			return err
		}
		if err := prime(ctx, d); err != nil {
			return err
		}
		return done(out, d.ManualUpdate(ctx, domain.ManualUpdate{
			URL:         fs.Arg(0),
			Title:       *title,
			Company:     *company,
			Description: description,
		}))

	case "clear-history":
		if err := prime(ctx, d); err != nil {
			return err
		}
		return done(out, d.ClearHistory(ctx))

	case "profile":
		return runProfile(ctx, a, args, stdin, out)
	}

	return errUsage
}

func runProfile(ctx context.Context, a *app.Application, args []string, stdin io.Reader, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	kind, err := domain.ParseProfileKind(args[1])
	if err != nil {
		return err
	}

	switch args[0] {
	case "get":
		content, err := a.Profiles().GetProfile(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, content)
		return nil
	case "set":
		content, err := readInput(args[2:], stdin, false)
		if err != nil {
			return err
		}
		if err := a.Profiles().SaveProfile(ctx, kind, content); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s profile saved\n", kind)
		return nil
	}
	return errUsage
}

// prime loads the job set so validations see the current state.
func prime(ctx context.Context, d *usecase.Dispatcher) error {
	if err := d.Refresh(ctx); err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	return nil
}

func done(out io.Writer, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

// readInput returns the content named by args: "-" or nothing reads stdin, a
// single existing file is read, anything else is taken literally when inline is set.
func readInput(args []string, stdin io.Reader, inline bool) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	if len(args) == 1 {
		if raw, err := os.ReadFile(args[0]); err == nil {
			return string(raw), nil
		} else if !inline {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
	}
	if !inline {
		return "", errUsage
	}
	return strings.Join(args, " "), nil
}
