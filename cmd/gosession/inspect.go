package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type inspection struct {
	Subject            string         `json:"subject"`
	IssuedAt           *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt          time.Time      `json:"expires_at"`
	Valid              bool           `json:"valid"`
	MinutesUntilExpiry int            `json:"minutes_until_expiry"`
	Claims             map[string]any `json:"claims,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [token|-]",
		Short: "Decode a credential and show its expiry",
		Long: "Decode a credential without verifying its signature. Pass - or no\n" +
			"argument to read the token from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := tokenArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			cred, err := credential.Decode(raw)
			if err != nil {
				return err
			}

			now := time.Now()
			in := inspection{
				Subject:            cred.Subject,
				ExpiresAt:          cred.ExpiresAt,
				Valid:              cred.ValidAt(now),
				MinutesUntilExpiry: cred.MinutesUntil(now),
				Claims:             cred.Claims,
			}
			if !cred.IssuedAt.IsZero() {
				iat := cred.IssuedAt
				in.IssuedAt = &iat
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(in)
			}
			printInspection(out, in)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printInspection(w io.Writer, in inspection) {
	state := color.New(color.FgGreen).Sprint("valid")
	if !in.Valid {
		state = color.New(color.FgRed).Sprint("expired")
	}
	fmt.Fprintf(w, "subject:    %s\n", in.Subject)
	if in.IssuedAt != nil {
		fmt.Fprintf(w, "issued at:  %s\n", in.IssuedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "expires at: %s\n", in.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "state:      %s (%d min left)\n", state, in.MinutesUntilExpiry)
}

func tokenArg(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("no token given")
	}
	return token, nil
}
