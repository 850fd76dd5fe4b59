package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gomod.pri/cobf/strcrypt"
)

func newDecryptCmd(f *rootFlags) *cobra.Command {
	var unescape bool
	cmd := &cobra.Command{
		Use:   "decrypt [flags] PAYLOAD...",
		Short: "Decrypt base64 payloads emitted in _decrypt_str declarations",
		Long: `decrypt reverses the string encryption for the configured key and prints
each plaintext on its own line, escape sequences as written in the source.
With --unescape it prints the bytes the obfuscated program sees instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			for _, payload := range args {
				pt, err := strcrypt.Decrypt(payload, []byte(c.Key))
				if err != nil {
					return err
				}
				if unescape {
					pt = strcrypt.Unescape(string(pt))
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(pt))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&unescape, "unescape", "u", false, "interpret escape sequences like _decrypt_str does")
	return cmd
}
