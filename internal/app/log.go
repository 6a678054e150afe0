package app

import "log"

// logf is the package diagnostic logger; tests may mute it.
var logf = log.Printf
