package cgt_test

import (
	"testing"

	"github.com/agbgames/cgt/internal/builder"
	"github.com/agbgames/cgt/internal/errors"
	"github.com/agbgames/cgt/pkg/cgt"
)

// TestExitCodeConsistency verifies that public exit code constants match
// the internal errors package constants.
func TestExitCodeConsistency(t *testing.T) {
	tests := []struct {
		name     string
		public   int
		internal int
	}{
		{"Success", cgt.ExitSuccess, errors.ExitSuccess},
		{"Failure/RuntimeError", cgt.ExitFailure, errors.ExitRuntimeError},
		{"DescriptorError/ConfigError", cgt.ExitDescriptorError, errors.ExitConfigError},
		{"EnvError/EnvironmentError", cgt.ExitEnvError, errors.ExitEnvironmentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.public != tt.internal {
				t.Errorf("exit code mismatch: cgt constant = %d, errors constant = %d",
					tt.public, tt.internal)
			}
		})
	}
}

// TestBuildOutcomeExitCodes verifies that every build outcome maps to a
// public exit code.
func TestBuildOutcomeExitCodes(t *testing.T) {
	tests := []struct {
		outcome builder.Outcome
		want    int
	}{
		{builder.Succeeded, cgt.ExitSuccess},
		{builder.FailedDueToDescriptorErrors, cgt.ExitDescriptorError},
		{builder.FailedDueToEnvironment, cgt.ExitEnvError},
	}
	for _, tt := range tests {
		if got := tt.outcome.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.outcome, got, tt.want)
		}
	}
}
