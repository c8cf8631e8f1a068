// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// scctl is the command line front end of the board-management core.
package main

import "github.com/u-root/scbmc/cmd/scctl/cmd"

func main() {
	cmd.Execute()
}
