// Package exitcodes defines the standard exit codes used by op-harness.
package exitcodes

// Exit code constants used by op-harness
// These constants define the exit codes that the application uses to report
// the terminal outcome of a launch request:
//
// * Success (0): The test ended on its own, or within the grace window after cancellation
// * SetupFailure (2): The test could not be resolved or the harness could not be configured
// * ForcedTermination (3): The test ignored cancellation past the grace window
const (
	Success           = 0 // Test ended correctly
	SetupFailure      = 2 // Setup or runtime errors before the test ran
	ForcedTermination = 3 // Test did not honor cancellation in time
)
