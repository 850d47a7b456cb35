package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tgienger/prevtech/internal/permissions"
	"github.com/tgienger/prevtech/internal/workflow"
	"github.com/urfave/cli/v3"
)

func NewTemplatesCommand() *cli.Command {
	return &cli.Command{
		Name:    "templates",
		Aliases: []string{"ls"},
		Usage:   "List the workflow templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only list templates of this category",
				Value: workflow.AllCategories,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			catalog, err := loadCatalog(command)
			if err != nil {
				return err
			}
			printTemplates(command.Root().Writer, catalog, command.String("category"))
			return nil
		},
	}
}

func printTemplates(w io.Writer, source workflow.TemplateSource, category string) {
	templates := source.ListTemplates(category)

	fmt.Fprintln(w, "Workflow Templates:")
	fmt.Fprintln(w, "===================")

	for _, t := range templates {
		fmt.Fprintf(w, "\n%s (%s)\n", t.Name, t.ID)
		fmt.Fprintf(w, "Category: %s\n", t.Category)
		if t.Description != "" {
			fmt.Fprintf(w, "%s\n", t.Description)
		}
		for _, st := range t.Subtasks {
			required := ""
			if st.Required {
				required = " *"
			}
			fmt.Fprintf(w, "  %d. %s%s  @%s  D-%d\n", st.Order, st.Title, required, st.Assignee, st.DueOffset)
		}
	}

	fmt.Fprintf(w, "\nTotal templates: %d\n", len(templates))
}

func NewPermissionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "permissions",
		Usage: "Print the stored permission matrix",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "action",
				Usage: "Only print these actions (C, R, U, D or full names)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			actions, err := parseActions(command.StringSlice("action"))
			if err != nil {
				return err
			}

			database, err := openDatabase(command)
			if err != nil {
				return err
			}
			defer database.Close()

			m, err := database.LoadPermissions(permissions.DefaultMatrix())
			if err != nil {
				return fmt.Errorf("failed to load permissions: %w", err)
			}
			printMatrix(command.Root().Writer, m, actions)
			return nil
		},
	}
}

// parseActions resolves the --action values; none means every action
func parseActions(values []string) ([]permissions.Action, error) {
	if len(values) == 0 {
		return permissions.Actions, nil
	}
	actions := make([]permissions.Action, 0, len(values))
	for _, v := range values {
		a, ok := permissions.ParseAction(strings.TrimSpace(v))
		if !ok {
			return nil, fmt.Errorf("unknown action %q", v)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// printMatrix writes one block per profile with a row per resource and a
// column per action
func printMatrix(w io.Writer, m *permissions.Matrix, actions []permissions.Action) {
	width := 0
	for _, r := range m.Resources {
		width = max(width, len([]rune(r)))
	}

	for _, p := range m.Profiles {
		fmt.Fprintf(w, "%s\n", p)
		header := make([]string, len(actions))
		for i, a := range actions {
			header[i] = a.Short()
		}
		fmt.Fprintf(w, "  %s  %s\n", pad("", width), strings.Join(header, " "))

		for _, r := range m.Resources {
			cells := make([]string, len(actions))
			for i, a := range actions {
				switch {
				case permissions.Locked(r, a):
					cells[i] = "-"
				case m.Get(r, p, a):
					cells[i] = "x"
				default:
					cells[i] = "."
				}
			}
			fmt.Fprintf(w, "  %s  %s\n", pad(r, width), strings.Join(cells, " "))
		}
		fmt.Fprintln(w)
	}
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(width-len([]rune(s)), 0))
}

func NewVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, command *cli.Command) error {
			fmt.Fprintf(command.Root().Writer, "prevtech %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
