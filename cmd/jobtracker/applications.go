package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"job-tracker/internal/app"
	"job-tracker/internal/domain/application"
	"job-tracker/internal/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func row(cells ...any) table.Row {
	return table.Row(cells)
}

// fieldFlags binds the editable record fields. Only flags the user set end
// up in the Fields.
type fieldFlags struct {
	company, position, status, date, url, skills, notes string
}

func (f *fieldFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.company, "company", "", "company name")
	cmd.Flags().StringVar(&f.position, "position", "", "position title")
	cmd.Flags().StringVar(&f.status, "status", "", "applied|pending|interview|offer|rejected")
	cmd.Flags().StringVar(&f.date, "date", "", "date applied, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.url, "url", "", "job posting url")
	cmd.Flags().StringVar(&f.skills, "skills", "", "comma separated skills")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free text notes")
}

func (f *fieldFlags) fields(cmd *cobra.Command) (application.Fields, error) {
	var out application.Fields
	changed := cmd.Flags().Changed
	if changed("company") {
		out.Company = &f.company
	}
	if changed("position") {
		out.Position = &f.position
	}
	if changed("status") {
		st, err := application.ParseStatus(f.status)
		if err != nil {
			return out, fmt.Errorf("%w: %q", err, f.status)
		}
		out.Status = &st
	}
	if changed("date") {
		out.DateApplied = &f.date
	}
	if changed("url") {
		out.URL = &f.url
	}
	if changed("skills") {
		skills := application.ParseSkills(f.skills)
		out.Skills = &skills
	}
	if changed("notes") {
		out.Notes = &f.notes
	}
	return out, out.Validate()
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	ff := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an application by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := ff.fields(cmd)
			if err != nil {
				return err
			}
			if fields.Company == nil || fields.Position == nil {
				return errors.New("--company and --position are required")
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				rec, err := c.Tracker.Create(ctx, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", rec.ID)
				return nil
			})
		},
	}
	ff.bind(cmd)
	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	ff := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := ff.fields(cmd)
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				rec, err := c.Tracker.Update(ctx, args[0], fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", rec.ID, rec.Status)
				return nil
			})
		},
	}
	ff.bind(cmd)
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var filter tracker.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked applications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				records := c.Tracker.List(filter)
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No applications found")
					return nil
				}
				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(row("ID", "Company", "Position", "Status", "Applied", "Skills"))
				for _, r := range records {
					t.AppendRow(row(r.ID, r.Company, r.Position, r.Status, r.DateApplied, strings.Join(r.Skills, ", ")))
				}
				t.AppendFooter(row("", "", "", "", "Total", len(records)))
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "match company or position")
	cmd.Flags().StringVar(&filter.Status, "status", "all", "only this status")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show application counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				s := c.Tracker.Stats()
				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(row("Total", "Applied", "Interview", "Offer", "Active"))
				t.AppendRow(row(s.Total, s.Applied, s.Interview, s.Offer, c.Tracker.ActiveCount()))
				t.Render()
				return nil
			})
		},
	}
}

func newCycleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <id>",
		Short: "Advance an application to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				rec, ok, err := c.Tracker.CycleStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", tracker.ErrNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", rec.ID, rec.Status)
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				removed, err := c.Tracker.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: %s", tracker.ErrNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this deletes all applications and cannot be undone; pass --yes to confirm")
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				if err := c.Tracker.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all applications cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
