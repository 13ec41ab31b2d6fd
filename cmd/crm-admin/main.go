package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/whatsmynameidontknow/crm-admin/internal/api"
	"github.com/whatsmynameidontknow/crm-admin/internal/cli"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/logging"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
	"github.com/whatsmynameidontknow/crm-admin/internal/table"
	"github.com/whatsmynameidontknow/crm-admin/internal/tui"
)

func main() {
	config, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(config *cli.Config) error {
	log, closer, err := logging.New(logging.Config{Filename: config.LogFile, Level: config.LogLevel})
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := api.NewClient(config.BaseURL, api.WithTimeout(config.Timeout), api.WithLogger(log))
	if err != nil {
		return err
	}

	store := session.NewStore(config.SessionFile)
	sess, err := store.Load()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		log.WithError(err).WithField("session_file", store.Path()).Warn("could not read stored session")
	}

	fd := os.Stdout.Fd()
	if shouldUseTUIWithOverride(config, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		log.WithFields(logrus.Fields{"base_url": config.BaseURL, "session_file": store.Path()}).Info("starting ui")
		if err := tui.Run(tui.Options{
			Backend:     client,
			Store:       store,
			Logger:      log,
			Session:     sess,
			Username:    config.User,
			Entity:      config.Entity,
			RowsPerPage: config.RowsPerPage,
			Limit:       config.Limit,
			Timeout:     config.Timeout,
		}); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
		return nil
	}

	if config.Entity == "" {
		return errors.New("stdout is not a terminal: use --print <clients|customers> or --tui")
	}
	if !sess.Valid(time.Now()) {
		return errors.New("not signed in: run crm-admin in a terminal to sign in first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	err = printPage(ctx, os.Stdout, client, sess, config)
	log.WithField("entity", config.Entity).WithField("page", config.Page).WithError(err).Info("printed page")
	if errors.Is(err, api.ErrUnauthorized) {
		if cerr := store.Clear(); cerr != nil {
			log.WithError(cerr).Warn("could not clear session")
		}
		return errors.New("session expired: run crm-admin in a terminal to sign in again")
	}
	return err
}

// shouldUseTUIWithOverride picks the interactive UI unless output is
// redirected or a one-shot print was asked for. --tui wins over both.
func shouldUseTUIWithOverride(config *cli.Config, isTTY bool) bool {
	if config.TUI {
		return true
	}
	if config.Print {
		return false
	}
	return isTTY
}

type lister interface {
	List(ctx context.Context, sess session.Session, d entity.Descriptor, page, limit int) (api.Page, error)
}

// printPage fetches one backend page and writes it as an aligned table,
// filtered and sorted the same way the list screen does it.
func printPage(ctx context.Context, w io.Writer, l lister, sess session.Session, config *cli.Config) error {
	d, ok := config.Descriptor()
	if !ok {
		return fmt.Errorf("unknown entity %q", config.Entity)
	}

	page, err := l.List(ctx, sess, d, config.Page, config.Limit)
	if err != nil {
		return err
	}

	orderBy := d.DefaultOrderBy
	if config.Sort != "" {
		orderBy = config.Sort
	}
	st := table.NewState(orderBy)
	st.Order = config.Order()
	st.SetRowsPerPage(max(1, len(page.Results)))

	win := table.View(st, page.Results, config.Filter, entity.Row.Get, d.DisplayName)

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetColumnSeparator("")
	tw.SetHeaderLine(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	header := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		header[i] = strings.ToUpper(col.Label)
		if col.ID == st.OrderBy {
			header[i] += " " + st.Order.Arrow()
		}
	}
	tw.SetHeader(header)
	for _, row := range win.Rows {
		cells := make([]string, len(d.Columns))
		for i, col := range d.Columns {
			cells[i] = row.String(col.ID)
		}
		tw.Append(cells)
	}
	tw.Render()

	switch {
	case win.NotFound:
		fmt.Fprintf(w, "\nNo results found for %q.\n", strings.TrimSpace(config.Filter))
	case win.Total == 0:
		fmt.Fprintln(w, "\nNo data")
	}
	fmt.Fprintf(w, "\n%s page %d/%d, %d of %d rows shown\n", d.Plural, config.Page, max(1, page.TotalPages), win.Matched, win.Total)
	return nil
}
