package main

import (
	"fmt"
	"os"

	"daomerge/config"
	"daomerge/internal/codec"

	"github.com/spf13/cobra"
)

type codecOptions struct {
	Scheme string
	Key    string
}

func (o *codecOptions) codec() (codec.Codec, error) {
	key := o.Key
	if key == "" {
		key = os.Getenv(config.EnvEncryptionKey)
	}
	if key == "" {
		return nil, &config.ConfigurationError{Field: config.EnvEncryptionKey, Reason: "is not set"}
	}
	return codec.New(o.Scheme, key)
}

func (o *codecOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Scheme, "scheme", codec.SchemeCryptr, "cipher scheme (cryptr|age)")
	cmd.Flags().StringVar(&o.Key, "key", "", "encryption key (defaults to $"+config.EnvEncryptionKey+")")
}

func newEncryptCommand() *cobra.Command {
	opts := &codecOptions{}
	cmd := &cobra.Command{
		Use:   "encrypt <commit-sha>",
		Short: "Encrypt a commit hash for a merge proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.codec()
			if err != nil {
				return err
			}
			ciphertext, err := c.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func newDecryptCommand() *cobra.Command {
	opts := &codecOptions{}
	cmd := &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Decrypt the commit hash carried by a merge proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.codec()
			if err != nil {
				return err
			}
			sha, err := c.Decrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sha)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}
