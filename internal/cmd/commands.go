package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/summit58/camunda-spin"
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format/json"
	"github.com/summit58/camunda-spin/format/xml"
	"github.com/summit58/camunda-spin/source/fs"
)

func (a *app) formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered formats in detection order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALIASES\tPRIORITY")
			for _, info := range spin.Formats() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, strings.Join(info.Aliases, ","), info.Priority)
			}
			return tw.Flush()
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	var pointer string
	cmd := &cobra.Command{
		Use:   "get FILE",
		Short: "Print the node at a JSON Pointer",
		Example: `  spin get order.json --pointer /items/0/sku
  spin get order.xml --pointer /item/@sku`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := doc.node.At(pointer)
			if err != nil {
				return err
			}
			out, err := render(n)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&pointer, "pointer", "p", "", "JSON Pointer of the node to print")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query FILE EXPR",
		Short: "Evaluate JSONPath (JSON, YAML, TOML) or XPath (XML)",
		Example: `  spin query order.json '$.items[*].sku'
  spin query order.xml '//item/@sku'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return query(cmd.OutOrStdout(), doc.node, args[1])
		},
	}
}

// query writes one line per match of expr.
func query(w io.Writer, n dataformat.Node, expr string) error {
	var matches []dataformat.Node
	if e, ok := n.(*xml.Element); ok {
		q, err := e.XPath(expr)
		if err != nil {
			return err
		}
		if attrs, err := q.Attributes(); err == nil {
			for _, attr := range attrs {
				matches = append(matches, attr)
			}
		} else if elems, err := q.Elements(); err == nil {
			for _, elem := range elems {
				matches = append(matches, elem)
			}
		}
	} else {
		j, ok := n.(*json.Node)
		if !ok {
			converted, err := spin.Convert(n, spin.WithFormat(json.Name))
			if err != nil {
				return err
			}
			if j, err = json.AsNode(converted); err != nil {
				return err
			}
		}
		q, err := j.JSONPath(expr)
		if err != nil {
			return err
		}
		if q.Exists() {
			elems, err := q.Elements()
			if err != nil {
				return err
			}
			for _, elem := range elems {
				matches = append(matches, elem)
			}
		}
	}

	if len(matches) == 0 {
		return &dataformat.QueryError{Format: n.Format().Name(), Expr: expr, Reason: "no match"}
	}
	for _, m := range matches {
		out, err := render(m)
		if err != nil {
			return err
		}
		if err := writeLine(w, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) convertCmd() *cobra.Command {
	var to, output string
	cmd := &cobra.Command{
		Use:     "convert FILE",
		Short:   "Convert a document to another format",
		Example: `  spin convert order.xml --to yaml --output order.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts, err := a.options(to)
			if err != nil {
				return err
			}
			converted, err := spin.Convert(doc.node, opts...)
			if err != nil {
				return err
			}
			if output != "" {
				return spin.Save(cmd.Context(), fs.New(output), converted)
			}
			raw, err := converted.Marshal()
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), string(raw))
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "target format name or alias")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE EXPR",
		Short: "Re-run a query whenever the file changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

// watch prints the query result now and after every change until ctx is
// done. Failures after the first run are logged and watching continues.
func (a *app) watch(ctx context.Context, w io.Writer, path, expr string) error {
	doc, err := a.load(ctx, path)
	if err != nil {
		return err
	}
	if err := query(w, doc.node, expr); err != nil {
		return err
	}

	log := a.log().WithField("path", path)
	stopWatch, err := spin.Watch(ctx, doc.src, func(n dataformat.Node, err error) {
		if err == nil {
			err = query(w, n, expr)
		}
		if err != nil {
			log.WithError(err).Warn("query failed")
		}
	}, doc.opts...)
	if err != nil {
		return err
	}
	log.Info("watching for changes")
	<-ctx.Done()
	return stopWatch()
}
