// Chromatag - product photo colour classifier
//
// Chromatag determines a product's colour category from its photograph by
// extracting the dominant colour and matching it against a configurable
// palette of named colour categories.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"github.com/jmylchreest/chromatag/internal/cli"
)

func main() {
	cli.Execute()
}
