package main

import (
	"fmt"
	"strconv"

	"github.com/sobulik/fundec/types"
)

const defaultTarget = 5

// parseTarget returns the value to search for from the positional arguments.
func parseTarget(args []string, log types.Logger) (int, error) {
	if len(args) == 0 {
		log.Warn("An integer to be searched can be passed as command line argument. Defaulting to 5.")
		return defaultTarget, nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid target %q: %w", args[0], err)
	}

	return target, nil
}
