// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"code.gitea.io/pgp/modules/log"

	"github.com/urfave/cli/v3"
)

// NewMainCommand builds the pgp command with all subcommands attached.
func NewMainCommand() *cli.Command {
	return &cli.Command{
		Name:   "pgp",
		Usage:  "OpenPGP message tool: encrypt, decrypt, armor and dearmor",
		Flags:  appGlobalFlags(),
		Before: prepareLogging,
		Commands: []*cli.Command{
			cmdEncrypt(),
			cmdDecrypt(),
			cmdArmor(),
			cmdDearmor(),
		},
	}
}

func appGlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.HelpFlag,
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "Set logging level (trace, debug, info, warn, error, none)",
		},
	}
}

func prepareLogging(_ context.Context, c *cli.Command) (context.Context, error) {
	log.GetLogger().SetLevel(log.LevelFromString(c.String("log-level")))
	return nil, nil
}

// readInput reads the whole input: the named file, or stdin for "-" or no
// argument.
func readInput(c *cli.Command) ([]byte, error) {
	name := c.Args().First()
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func writeOutput(c *cli.Command, data []byte) error {
	name := c.String("output")
	if name == "" || name == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"O"},
		Usage:   "Output file (defaults to stdout)",
	}
}

func optionsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "options",
		Aliases: []string{"o"},
		Usage:   "Comma separated key=value PGP options, e.g. 'cipher-algo=aes256, compress-algo=1'",
	}
}

// RunMainCommand executes the tool and exits non-zero on failure.
func RunMainCommand(args []string) {
	if err := NewMainCommand().Run(context.Background(), args); err != nil {
		log.Fatal("%v", err)
	}
}
