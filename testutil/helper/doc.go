// Package helper provides testing utilities and observability spies for the
// document store test suites.
//
// This package contains shared testing infrastructure including arrange-phase
// helpers for hermetic backends and instrumented clients, plus spy
// implementations of the logging, metrics, and tracing interfaces for
// capturing and validating instrumentation output during tests.
package helper
