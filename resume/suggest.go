package resume

import (
	"fmt"
)

// FollowUp suggests the next action after a batch: re-verify when
// everything passed, rerun the failures otherwise.
func FollowUp(passed, failed int) string {
	if failed == 0 {
		if passed == 0 {
			return ""
		}
		return "All specs passed. To double-check the build independently:\n\n    speckit verify"
	}
	noun := "spec"
	if failed > 1 {
		noun = "specs"
	}
	return fmt.Sprintf("%d %s failed. To retry only the failures from this batch:\n\n    speckit run --rerun-failed", failed, noun)
}
