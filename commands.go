package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"selq/internal/dblib"
	"selq/internal/mapdoc"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List the layers and table views of the document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := mapdoc.Load(resolveDocumentPath())
		if err != nil {
			return err
		}

		var rows [][]string
		doc.Each(func(kind mapdoc.ViewKind, v *mapdoc.View) bool {
			rows = append(rows, []string{
				kind.String(),
				v.Name,
				v.Source + ":" + v.Relation,
				strconv.Itoa(v.Selection.Count()),
				v.DefinitionQuery,
			})
			return true
		})
		renderTable(cmd.OutOrStdout(), []string{"KIND", "NAME", "RELATION", "SELECTED", "DEFINITION QUERY"}, rows)
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields [view]",
	Short: "List the fields of a view with their kinds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer s.Close()

		v, _, err := s.Doc.FindView(args[0])
		if err != nil {
			return err
		}
		rel, err := s.Relation(v)
		if err != nil {
			return err
		}

		renderTable(cmd.OutOrStdout(), []string{"FIELD", "TYPE", "KIND", "NULLABLE", "IN CLAUSE"}, fieldRows(rel))
		return nil
	},
}

func fieldRows(rel *dblib.Relation) [][]string {
	key := make(map[string]bool, len(rel.Key))
	for _, k := range rel.Key {
		key[k] = true
	}

	rows := make([][]string, 0, len(rel.Columns))
	for _, col := range rel.Columns {
		name := col.Name
		if key[name] {
			name += " *"
		}
		usable := "no"
		if col.Kind.Supported() {
			usable = "yes"
		}
		rows = append(rows, []string{name, col.Type, col.Kind.String(), strconv.FormatBool(col.Nullable), usable})
	}
	return rows
}

var selectCmd = &cobra.Command{
	Use:   "select [view] [key...]",
	Short: "Replace the selection of a view",
	Long: `Replace the selected records of a view by their keys. With no keys the
selection is cleared. The document is saved afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.Select(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		if err := s.Doc.Save(); err != nil {
			return err
		}
		breadcrumbs.RecordDocument("save", s.Doc.Path())
		s.Msg.AddMessage(fmt.Sprintf("%d records selected in %s", n, args[0]))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every definition query in the document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
		s, err := openSession(msg)
		if err != nil {
			return err
		}
		defer s.Close()

		problems := s.Check(cmd.Context())
		for _, p := range problems {
			msg.AddError(fmt.Sprintf("%s %s: %v", p.Kind, p.View, p.Err))
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d definition queries failed", len(problems))
		}
		msg.AddMessage("All definition queries are valid.")
		return nil
	},
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose the view, field and apply flag interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		return newPickDialog(cmd.Context(), s).Run()
	},
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(w, strings.TrimRight(t.Render(), "\n"))
}
