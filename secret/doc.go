// Package secret resolves credentials referenced from configuration.
//
// A configuration value may contain ${VAR} references, which must be set in
// the environment, and secret references of the form
//
//	secretref:<provider>:<ref>
//
// either as the whole value or inline ("Bearer secretref:env:GYM_TOKEN").
// Two providers ship with the package: "env" reads an environment variable,
// "file" reads a file and trims trailing newlines (container secrets).
//
// Resolved values must never be logged.
package secret
