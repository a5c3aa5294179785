package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/termsearch/internal/app"
	"github.com/hyperifyio/termsearch/internal/export"
	"github.com/hyperifyio/termsearch/internal/mcpserver"
	"github.com/hyperifyio/termsearch/internal/server"
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	var (
		terms     []string
		termsFile string
		xlsxPath  string
		pdfPath   string
		mdPath    string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Search documents for terms and report every match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all := append([]string{}, terms...)
			if termsFile != "" {
				b, err := os.ReadFile(termsFile)
				if err != nil {
					return fmt.Errorf("read terms: %w", err)
				}
				all = append(all, app.ParseTerms(string(b))...)
			}
			uploads, err := app.UploadsFromPaths(args)
			if err != nil {
				return err
			}
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Analyze(cmd.Context(), uploads, all)
			if err != nil {
				return err
			}
			if err := writeReportFiles(rep, xlsxPath, pdfPath, mdPath); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				fmt.Fprint(c.out, rep.Markdown())
			}
			if !rep.HasMatches() {
				return app.ErrNoMatches
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&terms, "terms", "t", nil, "Comma-separated search terms")
	f.StringVar(&termsFile, "terms-file", "", "File with one search term per line")
	f.StringVar(&xlsxPath, "xlsx", "", "Write results to this Excel file")
	f.StringVar(&pdfPath, "pdf", "", "Write the report to this PDF file")
	f.StringVar(&mdPath, "md", "", "Write the Markdown report to this file")
	f.BoolVar(&asJSON, "json", false, "Print the report as JSON instead of Markdown")
	return cmd
}

// writeReportFiles writes the optional export files of a run. Empty paths
// are skipped.
func writeReportFiles(rep app.Report, xlsxPath, pdfPath, mdPath string) error {
	if xlsxPath != "" {
		if err := writeFile(xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, rep.Rows()) }); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		log.Info().Str("path", xlsxPath).Msg("spreadsheet written")
	}
	md := rep.Markdown()
	if pdfPath != "" {
		if err := writeFile(pdfPath, func(w io.Writer) error { return export.WritePDF(w, md) }); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", pdfPath).Msg("pdf written")
	}
	if mdPath != "" {
		if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}
	return nil
}

// writeFile renders into memory first so a failed render leaves no partial
// file behind.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			results, err := a.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			if len(results) == 0 {
				fmt.Fprintln(c.out, "No stored results.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(c.out, "%s  %-20s  p.%-4d %-16s %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Filename, r.Page, r.Term, oneLine(r.Summary))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default 50)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export RUN_ID",
		Short: "Export the stored results of a run to Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			results, err := a.RunResults(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			if err := writeFile(out, func(w io.Writer) error { return export.WriteXLSX(w, app.StoredRows(results)) }); err != nil {
				return fmt.Errorf("write xlsx: %w", err)
			}
			fmt.Fprintf(c.out, "%d results written to %s\n", len(results), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "search_results.xlsx", "Excel file to write")
	return cmd
}

func newSummarizeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize [FILE]",
		Short: "Summarize a text file, or standard input when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if len(args) == 1 {
				b, err = os.ReadFile(args[0])
			} else {
				b, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			summary, notice, err := a.SummarizeText(cmd.Context(), string(b))
			if err != nil {
				return err
			}
			if notice != "" {
				log.Warn().Msg(notice)
			}
			fmt.Fprintln(c.out, summary)
			return nil
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return server.New(a).ListenAndServe(cmd.Context(), c.cfg.ListenAddr)
		},
	}
	cmd.Flags().StringVar(&c.flags.ListenAddr, "addr", c.flags.ListenAddr, "Listen address")
	return cmd
}

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP on stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
search_text, analyze_files and recent_results tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := mcpserver.New(a)
			if err != nil {
				return err
			}
			err = s.Run(cmd.Context())
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:60]) + "..."
	}
	return s
}
