// Package testutil provides fakes and fixtures shared by the package tests:
//
//   - MockTranscriber: a configurable api.Transcriber with call tracking
//   - MockProber: an audio.Prober returning fixed durations
//   - WriteAudioFixtures: creates input folders with controlled mtimes
//   - Ledger helpers to write and read ledger files in tests
package testutil
