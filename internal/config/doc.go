// Package config loads and validates the reelpress configuration: a TOML
// file with an environment overlay for credentials. The resulting Config
// is constructed once at process start and passed into every collaborator;
// nothing in the repository reads credentials from the environment after
// startup.
package config
