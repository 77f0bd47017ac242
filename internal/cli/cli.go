// Package cli is the terminal front end of the roster: a list view, an
// item view, create/edit forms and delete, all talking to the API through
// internal/client.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/students-roster/internal/client"
	"github.com/aanand-mishra/students-roster/internal/config"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/types"
)

type app struct {
	cfg    *config.Client
	log    *slog.Logger
	apiURL string
	host   string
	api    *client.Client
}

// NewRootCommand builds the "students" command tree. Output goes to the
// command's configured writers (SetOut / SetErr).
func NewRootCommand(cfg *config.Client, log *slog.Logger) *cobra.Command {
	a := &app{cfg: cfg, log: log}

	root := &cobra.Command{
		Use:           "students",
		Short:         "Manage the student roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			a.connect()
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (overrides host-based selection)")
	root.PersistentFlags().StringVar(&a.host, "host", cfg.Host, "hostname the roster is served from")

	root.AddCommand(
		a.listCommand(),
		a.getCommand(),
		a.addCommand(),
		a.editCommand(),
		a.deleteCommand(),
	)
	return root
}

func (a *app) connect() {
	base := a.apiURL
	if base == "" {
		base = client.ResolveBaseURL(a.host, a.cfg.LocalAPIURL, a.cfg.RemoteAPIURL)
	}
	a.log.Debug("using API URL", slog.String("url", base))
	a.api = client.New(base,
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
		client.WithLogger(a.log),
	)
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := roster.New(cmd.Context(), a.api, a.log)
			r.TriggerRefresh()
			r.Wait()

			state := r.State()
			if state.Err != nil {
				return state.Err
			}
			return renderList(cmd.OutOrStdout(), state.Students)
		},
	}
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := a.api.GetStudent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderItem(cmd.OutOrStdout(), student)
			return nil
		},
	}
}

func (a *app) addCommand() *cobra.Command {
	var form types.NewStudent

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := a.api.CreateStudent(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Student added.")
			renderItem(cmd.OutOrStdout(), created)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&form.School, "school", "", "school")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var first, last, school string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change some fields of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only flags the user actually passed end up in the patch.
			var patch types.StudentPatch
			if cmd.Flags().Changed("first") {
				patch.FirstName = &first
			}
			if cmd.Flags().Changed("last") {
				patch.LastName = &last
			}
			if cmd.Flags().Changed("school") {
				patch.School = &school
			}

			updated, err := a.api.UpdateStudent(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Student updated.")
			renderItem(cmd.OutOrStdout(), updated)
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "new first name")
	cmd.Flags().StringVar(&last, "last", "", "new last name")
	cmd.Flags().StringVar(&school, "school", "", "new school")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.api.DeleteStudent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Student deleted."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func renderList(w io.Writer, students []types.Student) error {
	if len(students) == 0 {
		_, err := fmt.Fprintln(w, "No students found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST NAME\tLAST NAME\tSCHOOL")
	for _, s := range students {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.StudentID, s.FirstName, s.LastName, s.School)
	}
	return tw.Flush()
}

func renderItem(w io.Writer, s types.Student) {
	fmt.Fprintf(w, "%s %s\n", s.FirstName, s.LastName)
	fmt.Fprintf(w, "  ID:     %d\n", s.StudentID)
	fmt.Fprintf(w, "  School: %s\n", s.School)
}

// Execute runs the command tree and reports any error on stderr.
func Execute(ctx context.Context, root *cobra.Command) error {
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
