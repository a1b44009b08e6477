package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newMintCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		method  string
		key     string
		issuer  string
		expired bool
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue a signed credential for testing",
		Long: "Issue a signed credential. The key comes from --key or\n" +
			"GOSESSION_SIGNING_KEY: raw bytes for hs256; for ed25519 a PEM\n" +
			"private key or the base64 of a 64-byte private key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if key == "" {
				key = os.Getenv("GOSESSION_SIGNING_KEY")
			}
			if key == "" {
				return errors.New("signing key required: --key or GOSESSION_SIGNING_KEY")
			}

			cfg := credential.IssuerConfig{
				TTL:           ttl,
				SigningMethod: credential.SigningMethod(method),
				Issuer:        issuer,
			}
			switch cfg.SigningMethod {
			case credential.MethodHS256:
				cfg.PrivateKey = []byte(key)
			case credential.MethodEd25519:
				cfg.PrivateKey = []byte(key)
				if raw, err := base64.StdEncoding.DecodeString(key); err == nil {
					cfg.PrivateKey = raw
				}
			default:
				return fmt.Errorf("unknown signing method %q", method)
			}

			clock := clockwork.NewRealClock()
			iss, err := credential.NewIssuer(cfg, clock)
			if err != nil {
				return err
			}

			var token string
			if expired {
				now := clock.Now()
				token, err = iss.IssueWindow(subject, now.Add(-2*ttl), now.Add(-ttl), nil)
			} else {
				token, err = iss.Issue(subject, nil)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&subject, "subject", "demo-user", "credential subject")
	f.DurationVar(&ttl, "ttl", 15*time.Minute, "credential lifetime")
	f.StringVar(&method, "method", string(credential.MethodHS256), "hs256 or ed25519")
	f.StringVar(&key, "key", "", "signing key")
	f.StringVar(&issuer, "issuer", "", "iss claim")
	f.BoolVar(&expired, "expired", false, "issue a credential that expired ttl ago")
	return cmd
}
