package install

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/texbld/texbld-manager/internal/models"
)

const (
	minPythonMajor = 3
	minPythonMinor = 9
)

const pythonVersionScript = "import sys; print('%d.%d' % sys.version_info[:2])"

// PythonVersion asks the interpreter for its "major.minor" version.
func PythonVersion(ctx context.Context, run Runner, python string) (major, minor int, err error) {
	out, err := run.Output(ctx, python, "-c", pythonVersionScript)
	if err != nil {
		return 0, 0, err
	}
	return parsePythonVersion(out)
}

func parsePythonVersion(s string) (major, minor int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unrecognized python version %q", s)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unrecognized python version %q", s)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unrecognized python version %q", s)
	}
	return major, minor, nil
}

// CheckPythonVersion fails unless the interpreter is Python ^3.9. The
// failure is reported against the version probe of python.
func CheckPythonVersion(python string, major, minor int) error {
	if major != minPythonMajor || minor < minPythonMinor {
		return &models.SubprocessError{
			Command: []string{python, "-c", pythonVersionScript},
			Reason:  fmt.Sprintf("incompatible python version %d.%d (must be ^%d.%d)", major, minor, minPythonMajor, minPythonMinor),
		}
	}
	return nil
}
