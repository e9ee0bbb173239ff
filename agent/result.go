package agent

// ValidationResult is the uniform return shape of every validator. Error is
// set only when Valid is false and holds the single blocking reason.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Pass builds a successful result carrying advisory warnings.
func Pass(warnings ...string) ValidationResult {
	return ValidationResult{Valid: true, Warnings: warnings}
}

// Fail builds a blocking result.
func Fail(reason string, warnings ...string) ValidationResult {
	return ValidationResult{Valid: false, Error: reason, Warnings: warnings}
}
