package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"job-tracker/internal/app"
	"job-tracker/internal/capture"
	"job-tracker/internal/domain/application"

	"github.com/spf13/cobra"
)

func newCaptureCommand(opts *rootOptions) *cobra.Command {
	var (
		track    bool
		htmlFile string
	)
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Scrape a job page into a draft, optionally tracking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				d, err := scrapeDraft(ctx, c, args[0], htmlFile)
				if err != nil {
					return err
				}
				res := c.Capture.Check(d)
				printDraft(cmd.OutOrStdout(), res)
				if !track {
					return nil
				}
				rec, err := c.Capture.Track(ctx, d)
				if errors.Is(err, capture.ErrDuplicate) {
					return fmt.Errorf("this job is already being tracked (%s)", rec.ID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tracked %s\n", rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&track, "track", false, "save the draft as an application")
	cmd.Flags().StringVar(&htmlFile, "html", "", "scrape this saved HTML file instead of fetching the url")
	return cmd
}

func scrapeDraft(ctx context.Context, c *app.Container, pageURL, htmlFile string) (application.Draft, error) {
	if htmlFile == "" {
		return c.Capture.Scrape(ctx, pageURL)
	}
	f, err := os.Open(htmlFile)
	if err != nil {
		return application.Draft{}, err
	}
	defer f.Close()
	return c.Capture.ScrapeHTML(pageURL, f)
}

func printDraft(w io.Writer, res capture.Result) {
	d := res.Draft
	fmt.Fprintf(w, "Company:  %s\n", d.Company)
	fmt.Fprintf(w, "Position: %s\n", d.Position)
	if d.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", d.Location)
	}
	if d.Salary != "" {
		fmt.Fprintf(w, "Salary:   %s\n", d.Salary)
	}
	fmt.Fprintf(w, "Skills:   %s\n", strings.Join(d.Skills, ", "))
	fmt.Fprintf(w, "URL:      %s\n", d.URL)
	if res.Duplicate && res.Existing != nil {
		fmt.Fprintf(w, "Already tracked as %s (%s)\n", res.Existing.ID, res.Existing.Status)
	}
}

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var (
		track   bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Capture every url listed in a file, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := readURLs(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *app.Container) error {
				bo := c.BatchOptions()
				if workers > 0 {
					bo.Workers = workers
				}
				items := c.Capture.CaptureAll(ctx, urls, bo, track)

				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(row("URL", "Company", "Position", "Result"))
				failed := 0
				for _, it := range items {
					result := "new"
					switch {
					case it.Err != nil:
						result = "error: " + it.Err.Error()
						failed++
					case it.Result.Duplicate:
						result = "duplicate"
					case it.Tracked != nil:
						result = "tracked " + it.Tracked.ID
					}
					t.AppendRow(row(it.URL, it.Result.Draft.Company, it.Result.Draft.Position, result))
				}
				t.Render()
				if failed > 0 {
					return fmt.Errorf("%d of %d pages failed", failed, len(items))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&track, "track", false, "save every new draft as an application")
	cmd.Flags().IntVar(&workers, "workers", 0, "override SCRAPE_WORKERS")
	return cmd
}

func readURLs(stdin io.Reader, name string) ([]string, error) {
	var r io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, errors.New("no urls given")
	}
	return urls, nil
}
