package test

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"testing"
)

// TestController_DelegateMethodComplexity ensures that methods on Controller
// stay below a maximum line count. Methods exceeding the threshold likely
// contain inline flow logic that should move into helpers or the token
// manager.
//
// Allowed exceptions are explicitly listed below with mandatory metadata:
// - Reason: why the exception exists
// - Target: where the logic should migrate
// - RemoveBy: a version or milestone when the exception should be removed
//
// Exceptions without this metadata are rejected at test time to prevent
// permanent exception creep.
func TestController_DelegateMethodComplexity(t *testing.T) {
	const maxLines = 50
	files := []string{
		"../controller.go",
		"../controller_audit.go",
		"../controller_init.go",
		"../controller_login.go",
		"../controller_profile.go",
	}

	// delegateException describes one allowed exception to the delegate
	// complexity limit. All fields are required — if an entry is missing
	// reason, target, or removeBy, the test fails to force cleanup.
	type delegateException struct {
		limit    int    // maximum allowed lines for this method
		reason   string // why the exception is needed
		target   string // where the logic should migrate
		removeBy string // version or milestone when this should be removed
	}

	exceptions := map[string]delegateException{
		"Login": {80, "credential checks, audit metadata, and classified error mapping inline", "controller_login.go helper split", "v1.0.0"},
	}

	// Validate that every exception has complete metadata — prevents "permanent exceptions".
	for name, exc := range exceptions {
		if exc.reason == "" {
			t.Errorf("exception %q missing reason", name)
		}
		if exc.target == "" {
			t.Errorf("exception %q missing target", name)
		}
		if exc.removeBy == "" {
			t.Errorf("exception %q missing removeBy version/milestone", name)
		}
	}

	funcSig := regexp.MustCompile(`^func \(c \*Controller\) ([A-Za-z]\w*)\(`)

	type methodInfo struct {
		name  string
		start int
		depth int
	}

	for _, filename := range files {
		f, err := os.Open(filename)
		if err != nil {
			t.Fatalf("open %s: %v", filename, err)
		}

		scanner := bufio.NewScanner(f)
		lineNum := 0
		var current *methodInfo

		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			if current == nil {
				if m := funcSig.FindStringSubmatch(line); m != nil {
					current = &methodInfo{
						name:  m[1],
						start: lineNum,
						depth: strings.Count(line, "{") - strings.Count(line, "}"),
					}
					continue
				}
			}

			if current != nil {
				current.depth += strings.Count(line, "{") - strings.Count(line, "}")
				if current.depth <= 0 {
					length := lineNum - current.start + 1
					limit := maxLines
					if exc, ok := exceptions[current.name]; ok {
						limit = exc.limit
					}
					if length > limit {
						t.Errorf("%s:%d: method %s is %d lines (limit %d); move flow logic into helpers",
							filename, current.start, current.name, length, limit)
					}
					current = nil
				}
			}
		}

		if err := scanner.Err(); err != nil {
			t.Fatalf("scan %s: %v", filename, err)
		}
		_ = f.Close()
	}
}
