package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/yggauth"
)

// accountView is the printable form of an account. Tokens are never shown.
type accountView struct {
	Login    string        `json:"login"`
	Status   string        `json:"status"`
	LoggedIn bool          `json:"logged_in"`
	Current  string        `json:"current_profile,omitempty"`
	Profiles []profileView `json:"profiles"`
}

type profileView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Legacy  bool   `json:"legacy,omitempty"`
	Current bool   `json:"current,omitempty"`
}

func viewOf(acc *yggauth.Account) accountView {
	access, _ := acc.Token(yggauth.TokenAccess)
	v := accountView{
		Login:    acc.LoginUsername(),
		Status:   acc.Status().String(),
		LoggedIn: access != "",
		Profiles: []profileView{},
	}
	current := acc.CurrentProfile()
	if current != nil {
		v.Current = current.ID()
	}
	for _, p := range acc.Profiles() {
		v.Profiles = append(v.Profiles, profileView{
			ID:      p.ID(),
			Name:    p.Name(),
			Legacy:  p.Legacy(),
			Current: current != nil && p.ID() == current.ID(),
		})
	}
	return v
}

func printSummary(cmd *cobra.Command, acc *yggauth.Account) {
	v := viewOf(acc)
	name := "-"
	for _, p := range v.Profiles {
		if p.Current {
			name = p.Name
		}
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (profile %s)\n", v.Login, v.Status, name)
}

func writeTable(w io.Writer, v accountView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "LOGIN\t%s\n", v.Login)
	_, _ = fmt.Fprintf(tw, "STATUS\t%s\n", v.Status)
	_, _ = fmt.Fprintf(tw, "LOGGED IN\t%t\n", v.LoggedIn)
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "\tID\tNAME\tLEGACY")
	for _, p := range v.Profiles {
		mark := ""
		if p.Current {
			mark = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", mark, p.ID, p.Name, p.Legacy)
	}
	return tw.Flush()
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [username]",
		Short: "List stored accounts, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				logins, err := a.engine.Accounts(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), logins)
				}
				for _, login := range logins {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), login)
				}
				return nil
			}

			acc, err := a.restore(ctx, args[0], false)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), viewOf(acc))
			}
			return writeTable(cmd.OutOrStdout(), viewOf(acc))
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <username> <profile-id>",
		Short: "Make a stored profile the current one",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acc, err := a.restore(ctx, args[0], false)
			if err != nil {
				return err
			}
			if err := acc.SelectProfile(args[1]); err != nil {
				return fmt.Errorf("select %s: %w", args[1], err)
			}
			if err := a.engine.Persist(ctx, acc); err != nil {
				return err
			}
			printSummary(cmd, acc)
			return nil
		}),
	}
}
