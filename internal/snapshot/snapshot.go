// Package snapshot names the versioned output directories that each render
// writes into.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Prefix starts every snapshot directory name.
const Prefix = "output-"

const dateLayout = "2006-01-02"

var namePattern = regexp.MustCompile(`^output-(\d{4}-\d{2}-\d{2})(?:_(\d+))?$`)

// BaseName returns the unsuffixed directory name for the day of now.
func BaseName(now time.Time) string {
	return Prefix + now.Format(dateLayout)
}

// Allocate returns root joined with the first of output-<date>, output-<date>_1,
// output-<date>_2, ... that does not exist. It creates nothing.
func Allocate(root string, now time.Time) (string, error) {
	base := BaseName(now)
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		candidate := filepath.Join(root, name)
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

type entry struct {
	name   string
	date   string
	suffix int
}

// Latest returns the newest snapshot directory under root, ordered by date
// and then suffix. ok is false when root holds no snapshot.
func Latest(root string) (string, bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}

	var found []entry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := namePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if _, err := time.Parse(dateLayout, m[1]); err != nil {
			continue
		}
		suffix := 0
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			suffix = n
		}
		found = append(found, entry{name: e.Name(), date: m[1], suffix: suffix})
	}
	if len(found) == 0 {
		return "", false, nil
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].date != found[j].date {
			return found[i].date < found[j].date
		}
		return found[i].suffix < found[j].suffix
	})
	return filepath.Join(root, found[len(found)-1].name), true, nil
}
