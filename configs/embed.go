// Package configs provides the embedded configuration template used by
// `sentryscreen config init`. Embedding keeps the template available in
// every distribution channel (go install, binary releases).
package configs

import _ "embed"

// ConfigTemplate is the example runtime configuration written by
// `sentryscreen config init`. Every field except data_dir,
// auto_reindex_interval, port and log_level can also be set through the
// environment; see internal/config for the variable names.
//
//go:embed sentryscreen.example.yml
var ConfigTemplate string
