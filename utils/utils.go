package utils

import (
	"fmt"
	"strings"
)

// DriveLetter extracts the drive letter of an absolute windows path such as
// C:\files\report.txt.
func DriveLetter(path string) (string, error) {
	if len(path) < 2 || path[1] != ':' {
		return "", fmt.Errorf("path %s has no drive letter", path)
	}
	letter := path[0]
	if (letter < 'a' || letter > 'z') && (letter < 'A' || letter > 'Z') {
		return "", fmt.Errorf("path %s has no drive letter", path)
	}
	return strings.ToUpper(string(letter)), nil
}
