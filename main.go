// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"code.gitea.io/pgp/cmd"
)

func main() {
	cmd.RunMainCommand(os.Args)
}
