// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"code.gitea.io/pgp/modules/pgp"

	"github.com/urfave/cli/v3"
)

func cmdEncrypt() *cli.Command {
	return &cli.Command{
		Name:      "encrypt",
		Usage:     "Encrypt data into a PGP message",
		ArgsUsage: "[input-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password for symmetric encryption",
			},
			&cli.StringFlag{
				Name:    "pubkey",
				Aliases: []string{"k"},
				Usage:   "File with the recipient public keyring (binary or armored)",
			},
			&cli.BoolFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "Treat input as text and normalize line endings",
			},
			&cli.BoolFlag{
				Name:    "armor",
				Aliases: []string{"a"},
				Usage:   "ASCII-armor the output",
			},
			optionsFlag(),
			outputFlag(),
		},
		Action: runEncrypt,
	}
}

// loadKeyring reads a keyring file, transparently dearmoring it.
func loadKeyring(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	if bin, _, err := pgp.Dearmor(string(data)); err == nil {
		return bin, nil
	}
	return data, nil
}

func newContextFromFlags(c *cli.Command, forDecrypt bool) (*pgp.Context, error) {
	ctx := pgp.NewContext()
	if c.Bool("text") {
		ctx.SetTextMode(true)
		ctx.SetConvertCRLF(true)
	}
	if opts := c.String("options"); opts != "" {
		if err := ctx.ParseOptions(opts, forDecrypt); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

func runEncrypt(_ context.Context, c *cli.Command) error {
	password := c.String("password")
	keyFile := c.String("pubkey")
	if password == "" && keyFile == "" {
		return fmt.Errorf("either --password or --pubkey is required")
	}

	ctx, err := newContextFromFlags(c, false)
	if err != nil {
		return err
	}
	if keyFile != "" {
		keyring, err := loadKeyring(keyFile)
		if err != nil {
			return err
		}
		if err := ctx.SetPublicKey(keyring); err != nil {
			return err
		}
	} else if err := ctx.SetSymmetricKey([]byte(password)); err != nil {
		return err
	}

	data, err := readInput(c)
	if err != nil {
		return err
	}
	msg, err := ctx.Encrypt(data)
	if err != nil {
		return err
	}

	if c.Bool("armor") {
		armored, err := pgp.Armor(msg, nil)
		if err != nil {
			return err
		}
		return writeOutput(c, []byte(armored))
	}
	return writeOutput(c, msg)
}
