package main

// Version is the version of the cursor-reset executable.
const Version = "2.0.0"

// ShortName is the name used for logging prefixes and the CLI.
const ShortName = "cursor-reset"
