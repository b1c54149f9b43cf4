package models

import "strconv"

// FormatLabel renders an identity and version as "<id>-<version>".
func FormatLabel(id int64, version string) string {
	return strconv.FormatInt(id, 10) + "-" + version
}
