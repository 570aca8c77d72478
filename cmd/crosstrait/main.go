// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/crosstrait/crosstrait"
)

func main() {
	crosstrait.Main()
}
