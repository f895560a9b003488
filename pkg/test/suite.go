// Package test provides shared test scaffolding: a testify suite base and
// testcontainers helpers for the brokers the integration tests talk to.
package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

// Suite is the base for this module's testify suites. It carries a fresh
// context per test so suites can pass deadlines into connector calls.
type Suite struct {
	suite.Suite
	Ctx context.Context
}

func (s *Suite) SetupTest() {
	s.Ctx = context.Background()
}

// Run runs a testify suite from a standard Test function.
func Run(t *testing.T, s suite.TestingSuite) {
	suite.Run(t, s)
}

// RequireDocker skips the calling test under -short, where no container
// runtime is assumed.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker; skipped in -short mode")
	}
}
