// Package cgt provides public constants for tools that run the cgt CLI.
package cgt

// Exit codes returned by the cgt CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (unknown command, game crashed, etc.).
	ExitFailure = 1

	// ExitDescriptorError indicates descriptor errors or invalid arguments.
	ExitDescriptorError = 2

	// ExitEnvError indicates missing files or directories.
	ExitEnvError = 3
)
