package session

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveStartLocation normalizes the user-supplied start location into the
// form the transport expects. Accepted inputs: "home", "last", or
// "simname[/x/y/z]"; a malformed coordinate triplet falls back to "last".
func ResolveStartLocation(loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "last"
	}

	lower := strings.ToLower(loc)
	if lower == "home" || lower == "last" {
		return lower
	}

	parts := strings.Split(loc, "/")
	x, y, z := 128, 128, 0
	if len(parts) == 4 {
		var err error
		if x, err = strconv.Atoi(parts[1]); err != nil {
			return "last"
		}
		if y, err = strconv.Atoi(parts[2]); err != nil {
			return "last"
		}
		if z, err = strconv.Atoi(parts[3]); err != nil {
			return "last"
		}
	} else if len(parts) != 1 {
		return "last"
	}
	return fmt.Sprintf("uri:%s&%d&%d&%d", parts[0], x, y, z)
}
