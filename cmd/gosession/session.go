package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/cobra"
)

func newLoginCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login [token|-]",
		Short: "Store a credential as the current session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := tokenArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			cfg, err := o.config()
			if err != nil {
				return err
			}
			client, cleanup, err := openClient(o, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := client.Login(cmd.Context(), token); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), client.Status(cmd.Context()))
			return nil
		},
	}
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			client, cleanup, err := openClient(o, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

type statusView struct {
	Phase              string     `json:"phase"`
	Authenticated      bool       `json:"authenticated"`
	Valid              bool       `json:"valid"`
	Subject            string     `json:"subject,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	MinutesUntilExpiry int        `json:"minutes_until_expiry"`
}

func newStatusCmd(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			client, cleanup, err := openClient(o, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			client.Restore(cmd.Context())
			st := client.Status(cmd.Context())
			if !asJSON {
				printStatus(cmd.OutOrStdout(), st)
				return nil
			}

			view := statusView{
				Phase:              st.Phase.String(),
				Authenticated:      st.Authenticated,
				Valid:              st.Valid,
				Subject:            st.Subject,
				MinutesUntilExpiry: st.MinutesUntilExpiry,
			}
			if !st.ExpiresAt.IsZero() {
				view.ExpiresAt = &st.ExpiresAt
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printStatus(w io.Writer, st goSession.Status) {
	if st.Subject == "" {
		fmt.Fprintf(w, "no session (%s)\n", st.Phase)
		return
	}
	fmt.Fprintf(w, "subject:       %s\n", st.Subject)
	fmt.Fprintf(w, "phase:         %s\n", st.Phase)
	fmt.Fprintf(w, "authenticated: %t\n", st.Authenticated)
	fmt.Fprintf(w, "expires at:    %s (%d min left)\n", st.ExpiresAt.Format(time.RFC3339), st.MinutesUntilExpiry)
}
