package media

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"

	"factcheck/internal/fileutil"
	"factcheck/internal/services"
)

const (
	netscapeMarker = "# Netscape HTTP Cookie File"
	netscapeHeader = "# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file!  Do not edit.\n\n"
)

// resolveCookieJar returns the first readable cookie jar among paths, adding
// the Netscape header in place when it is missing.
func resolveCookieJar(paths []string) (string, error) {
	var problems []string
	for _, path := range paths {
		if err := ensureNetscapeJar(path); err != nil {
			problems = append(problems, path)
			continue
		}
		return path, nil
	}
	checked := strings.Join(problems, ", ")
	if checked == "" {
		checked = "(none configured)"
	}
	return "", services.WithHint(
		services.Wrap(services.ErrAuth, "downloading", "cookies",
			"YouTube authentication failed: no readable cookies.txt found. Checked paths: "+checked, nil),
		"export browser cookies for the platform to one of the checked paths, or configure a proxy",
	)
}

func ensureNetscapeJar(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.Contains(string(data), netscapeMarker) {
		return nil
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cookie jar: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	// Another request may have upgraded the jar while we waited for the lock.
	data, err = os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.Contains(string(data), netscapeMarker) {
		return nil
	}
	return fileutil.WriteFileAtomic(path, append([]byte(netscapeHeader), data...), 0o600)
}
