package transfer

import (
	"fmt"
	"io"
)

const (
	SuccessMessage = "AzCopy transfer completed successfully."
	FailureMessage = "AzCopy transfer encountered errors. Check the log for details."

	errorPrefix = "Error occurred during AzCopy transfer: "
)

// ReportStatus prints the one-line summary for an exit code.
func ReportStatus(w io.Writer, exitCode int) {
	if exitCode == 0 {
		fmt.Fprintln(w, SuccessMessage)
		return
	}
	fmt.Fprintln(w, FailureMessage)
}
