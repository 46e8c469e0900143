// Package logging provides opt-in file-based logging with rotation for termwiki.
// When the --debug flag is set, JSON logs are written to ~/.termwiki/logs/
// and `termwiki logs` can tail them.
//
// Without --debug, warnings and errors go to stderr only.
package logging
