// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command nestor runs nested sampling on built-in demonstration problems.
//
// Usage:
//
//	nestor run gaussian --dim 2 --live-points 400
//	nestor run eggbox --seed 7 --json
//	nestor run rosenbrock --max-calls 2000000
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
