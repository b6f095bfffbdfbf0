// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"strings"

	"code.gitea.io/pgp/modules/pgp"

	"github.com/urfave/cli/v3"
)

func cmdDecrypt() *cli.Command {
	return &cli.Command{
		Name:      "decrypt",
		Usage:     "Decrypt a PGP message",
		ArgsUsage: "[input-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password for symmetric decryption",
			},
			&cli.StringFlag{
				Name:    "seckey",
				Aliases: []string{"k"},
				Usage:   "File with the secret keyring (binary or armored)",
			},
			&cli.StringFlag{
				Name:  "key-password",
				Usage: "Password unlocking the secret key",
			},
			&cli.BoolFlag{
				Name:    "text",
				Aliases: []string{"t"},
				Usage:   "Expect text and convert line endings back",
			},
			optionsFlag(),
			outputFlag(),
		},
		Action: runDecrypt,
	}
}

func runDecrypt(_ context.Context, c *cli.Command) error {
	password := c.String("password")
	keyFile := c.String("seckey")
	if password == "" && keyFile == "" {
		return fmt.Errorf("either --password or --seckey is required")
	}

	ctx, err := newContextFromFlags(c, true)
	if err != nil {
		return err
	}
	if keyFile != "" {
		keyring, err := loadKeyring(keyFile)
		if err != nil {
			return err
		}
		if err := ctx.SetSecretKey(keyring, []byte(c.String("key-password"))); err != nil {
			return err
		}
	} else if err := ctx.SetSymmetricKey([]byte(password)); err != nil {
		return err
	}

	data, err := readInput(c)
	if err != nil {
		return err
	}
	// accept armored input transparently
	if strings.Contains(string(data), "-----BEGIN PGP") {
		if bin, _, err := pgp.Dearmor(string(data)); err == nil {
			data = bin
		}
	}

	plain, err := ctx.Decrypt(data)
	if err != nil {
		return err
	}
	return writeOutput(c, plain)
}
