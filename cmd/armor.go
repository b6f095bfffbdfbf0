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

func cmdArmor() *cli.Command {
	return &cli.Command{
		Name:      "armor",
		Usage:     "Wrap binary data in ASCII armor",
		ArgsUsage: "[input-file]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "Armor header as 'Key=Value', repeatable",
			},
			outputFlag(),
		},
		Action: runArmor,
	}
}

func cmdDearmor() *cli.Command {
	return &cli.Command{
		Name:      "dearmor",
		Usage:     "Extract the binary body of an ASCII-armored message",
		ArgsUsage: "[input-file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "show-headers",
				Usage: "Print armor headers to stderr",
			},
			outputFlag(),
		},
		Action: runDearmor,
	}
}

func runArmor(_ context.Context, c *cli.Command) error {
	var headers []pgp.ArmorHeader
	for _, h := range c.StringSlice("header") {
		key, val, found := strings.Cut(h, "=")
		if !found {
			return fmt.Errorf("bad header %q, expected Key=Value", h)
		}
		headers = append(headers, pgp.ArmorHeader{Key: key, Value: val})
	}

	data, err := readInput(c)
	if err != nil {
		return err
	}
	armored, err := pgp.Armor(data, headers)
	if err != nil {
		return err
	}
	return writeOutput(c, []byte(armored))
}

func runDearmor(_ context.Context, c *cli.Command) error {
	data, err := readInput(c)
	if err != nil {
		return err
	}
	bin, headers, err := pgp.Dearmor(string(data))
	if err != nil {
		return err
	}
	if c.Bool("show-headers") {
		for _, h := range headers {
			fmt.Fprintf(c.ErrWriter, "%s: %s\n", h.Key, h.Value)
		}
	}
	return writeOutput(c, bin)
}
