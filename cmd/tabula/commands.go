package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/paveg/tabula"
	"github.com/paveg/tabula/internal/version"
	"github.com/spf13/cobra"
)

func newDescribeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "List the columns and their types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				cols, err := s.engine.DescribeColumns(ctx, s.handle)
				if err != nil {
					return err
				}
				return writeJSON(s.out, cols)
			})
		},
	}
}

func newSheetsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List the worksheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, sync, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer sync()

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			eng, err := tabula.New(tabula.WithConfig(cfg), tabula.WithLogger(log))
			if err != nil {
				return err
			}
			res, err := eng.Load(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			defer eng.Clear(res.Handle)

			sheets := res.PendingSheets
			if res.Summary != nil {
				sheets = res.Summary.Sheets
			}
			if sheets == nil {
				sheets = []string{}
			}
			return writeJSON(cmd.OutOrStdout(), sheets)
		},
	}
}

func newPreviewCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the first rows as text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				p, err := s.engine.Preview(ctx, s.handle, limit)
				if err != nil {
					return err
				}
				return writeJSON(s.out, p)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of rows (0 for the configured preview limit)")
	return cmd
}

func newChartCommand(opts *options) *cobra.Command {
	var (
		req     tabula.ChartRequest
		kind    string
		filters []string
		list    bool
	)
	cmd := &cobra.Command{
		Use:   "chart FILE",
		Short: "Compute chart series for one or two columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseFilters(filters)
			if err != nil {
				return err
			}
			req.Kind = tabula.ChartKind(kind)
			req.Filters = spec

			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				if list {
					kinds, err := s.engine.AvailableCharts(ctx, s.handle, req.XColumn, req.YColumn)
					if err != nil {
						return err
					}
					return writeJSON(s.out, kinds)
				}
				out, err := s.engine.Chart(ctx, s.handle, req)
				if err != nil {
					return err
				}
				return writeJSON(s.out, out)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.XColumn, "x", "x", "", "category or x-axis column")
	f.StringVarP(&req.YColumn, "y", "y", "", "value column (optional for frequency charts)")
	f.StringVarP(&kind, "kind", "k", string(tabula.Bar), "bar, line, area, pie, scatter or boxplot")
	f.StringArrayVarP(&filters, "filter", "f", nil, "COLUMN=VALUE constraint, repeat for several values")
	f.BoolVar(&list, "available", false, "list the chart kinds suited to the columns instead")
	_ = cmd.MarkFlagRequired("x")
	return cmd
}

func newPivotCommand(opts *options) *cobra.Command {
	var (
		req     tabula.PivotRequest
		values  []string
		filters []string
	)
	cmd := &cobra.Command{
		Use:   "pivot FILE",
		Short: "Group rows and aggregate value columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := parseValueSpecs(values)
			if err != nil {
				return err
			}
			spec, err := parseFilters(filters)
			if err != nil {
				return err
			}
			req.Values = specs
			req.Filters = spec

			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				table, err := s.engine.Pivot(ctx, s.handle, req)
				if err != nil {
					return err
				}
				return writeJSON(s.out, table)
			})
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&req.RowColumns, "rows", "r", nil, "row dimension columns")
	f.StringSliceVarP(&req.ColumnColumns, "columns", "c", nil, "column dimension columns")
	f.StringArrayVarP(&values, "value", "V", nil, "COLUMN:AGG value spec (sum, mean, count, min, max)")
	f.StringArrayVarP(&filters, "filter", "f", nil, "COLUMN=VALUE constraint, repeat for several values")
	f.StringVar(&req.Mode, "mode", "", "cardinality mode: bounded or full")
	return cmd
}

func newRetypeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "retype FILE COLUMN=TYPE...",
		Short: "Convert columns and rewrite the file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := make([]tabula.RetypeRequest, 0, len(args)-1)
			for _, arg := range args[1:] {
				column, name, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected COLUMN=TYPE, got %q", arg)
				}
				typ, ok := tabula.ParseType(name)
				if !ok {
					return fmt.Errorf("unknown type %q", name)
				}
				requests = append(requests, tabula.RetypeRequest{Column: column, Target: typ})
			}

			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				res, err := s.engine.Retype(ctx, s.handle, requests)
				if err != nil {
					return err
				}
				return writeJSON(s.out, res)
			})
		},
	}
}

func newFormulaCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "formula FILE NAME EXPRESSION",
		Short: "Add a calculated column and rewrite the file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, args[0], func(ctx context.Context, s *session) error {
				info, err := s.engine.AddCalculatedColumn(ctx, s.handle, args[1], args[2])
				if err != nil {
					return err
				}
				return writeJSON(s.out, info)
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Info()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// parseFilters turns repeated COLUMN=VALUE flags into a filter spec. A
// column given once constrains to that value, several times to any of them.
func parseFilters(raw []string) (tabula.Filters, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	grouped := make(map[string][]any)
	var order []string
	for _, r := range raw {
		column, value, ok := strings.Cut(r, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("expected COLUMN=VALUE, got %q", r)
		}
		if _, seen := grouped[column]; !seen {
			order = append(order, column)
		}
		grouped[column] = append(grouped[column], value)
	}

	spec := make(tabula.Filters, len(grouped))
	for _, column := range order {
		if values := grouped[column]; len(values) == 1 {
			spec[column] = values[0]
		} else {
			spec[column] = values
		}
	}
	return spec, nil
}

func parseValueSpecs(raw []string) ([]tabula.ValueSpec, error) {
	specs := make([]tabula.ValueSpec, 0, len(raw))
	for _, r := range raw {
		column, agg, ok := strings.Cut(r, ":")
		if column == "" {
			return nil, fmt.Errorf("expected COLUMN:AGG, got %q", r)
		}
		if !ok {
			agg = string(tabula.Sum)
		}
		specs = append(specs, tabula.ValueSpec{Column: column, Agg: tabula.Agg(strings.ToLower(agg))})
	}
	return specs, nil
}
