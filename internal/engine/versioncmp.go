package engine

import (
	"strconv"
	"strings"

	"github.com/scorebox-project/scorebox/pkg/errclass"
)

// CompareVersions orders two dotted-numeric versions component-wise.
// Missing trailing components count as zero, so "2.1" == "2.1.0".
// Returns <0, 0, >0. A non-numeric component is E_VERSION_INVALID;
// the caller fails that single rule, never the cycle.
func CompareVersions(a, b string) (int, error) {
	partsA := strings.Split(a, ".")
	partsB := strings.Split(b, ".")

	n := len(partsA)
	if len(partsB) > n {
		n = len(partsB)
	}

	for i := 0; i < n; i++ {
		va, err := versionComponent(partsA, i)
		if err != nil {
			return 0, errclass.ErrVersionInvalid.WithMessagef("version %q: %v", a, err)
		}
		vb, err := versionComponent(partsB, i)
		if err != nil {
			return 0, errclass.ErrVersionInvalid.WithMessagef("version %q: %v", b, err)
		}
		if va != vb {
			if va < vb {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}

func versionComponent(parts []string, i int) (int64, error) {
	if i >= len(parts) {
		return 0, nil
	}
	return strconv.ParseInt(parts[i], 10, 64)
}
