package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/maghrebglobal/backoffice/internal/billing"
	"github.com/maghrebglobal/backoffice/validation"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh clients and products from the API into the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		if err := d.svc.Sync(cmd.Context()); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d clients, %d products\n", len(d.svc.ActiveClients()), len(d.svc.ActiveProducts()))
		return nil
	},
}

var wordsCmd = &cobra.Command{
	Use:     "words <amount>",
	Short:   "Print an amount in French words, as written on invoices",
	Example: "  backoffice words 1250,50",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := validation.Violations{}
		amount := validation.ParseFloat("amount", args[0], v)
		if !v.Empty() {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), billing.AmountToWords(amount))
		return nil
	},
}

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render <document-id>",
	Short: "Render a cached document to PDF locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		data, name, err := d.svc.RenderPDF(args[0])
		if err != nil {
			return fmt.Errorf("render %s: %w", args[0], err)
		}
		out := renderOutput
		if out == "" {
			out = name
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash to put in auth.password_hash",
	Long: `Print the bcrypt hash of a password for the auth.password_hash setting
(MG_AUTH_PASSWORD_HASH). Without an argument the password is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("empty password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: <type>-<number>.pdf)")
}
