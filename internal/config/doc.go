// Package config manages user-level settings stored at ~/.pkglink/config.yaml:
// the dependency directory links are created in, the descriptor file name,
// the link store location, journaling and log level. Every key can be
// overridden with a PKGLINK_<KEY> environment variable.
package config
