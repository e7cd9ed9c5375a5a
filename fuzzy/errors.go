package fuzzy

import "errors"

var errShortInput = errors.New("input too short for fuzzy hashing")
