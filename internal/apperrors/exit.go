package apperrors

// Process exit codes.
const (
	ExitOK        = 0
	ExitFatal     = 1
	ExitJobFailed = 2
)

// ExitStatus maps the outcome of a run to the process exit status.
// A fatal error wins over per-job failures.
func ExitStatus(fatal error, failedJobs int) int {
	switch {
	case fatal != nil:
		return ExitFatal
	case failedJobs > 0:
		return ExitJobFailed
	default:
		return ExitOK
	}
}
