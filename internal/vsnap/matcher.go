package vsnap

import (
	"path/filepath"
	"sort"
	"strings"
)

// Match is a stored snapshot selected by a query.
type Match struct {
	Path       string // absolute path of the stored file
	StoredName string
	Name       string // original file name
	Timestamp  Timestamp
	Size       int64
}

// FindMatches returns every snapshot in the nearest repository whose
// original name ends with q.FileName and whose timestamp is consistent
// with q.Time. Results are ordered oldest first; ties break on name.
func (s *Service) FindMatches(cwd string, q *Query) ([]*Match, error) {
	root, err := s.FindRepository(cwd)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.listSnapshots(root)
	if err != nil {
		return nil, err
	}

	var matches []*Match
	for _, m := range snapshots {
		if !strings.HasSuffix(m.Name, q.FileName) {
			continue
		}
		if !q.Time.Matches(m.Timestamp) {
			continue
		}
		matches = append(matches, m)
	}

	s.logger.Debug("matched snapshots", "file", q.FileName, "time", q.Time.String(), "count", len(matches))
	return matches, nil
}

// ListSnapshots returns every snapshot in the nearest repository whose
// original name ends with fragment. An empty fragment lists everything.
func (s *Service) ListSnapshots(cwd string, fragment string) ([]*Match, error) {
	return s.FindMatches(cwd, &Query{FileName: fragment, Time: AnyTime()})
}

// listSnapshots decodes the entries of the repository root. Entries that
// are not regular files or do not decode are skipped silently.
func (s *Service) listSnapshots(root string) ([]*Match, error) {
	entries, err := s.fsmgr.ReadDir(root)
	if err != nil {
		return nil, wrapKind(ErrDirectoryRead, err)
	}

	var snapshots []*Match
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ts, name, ok := DecodeSnapshotName(entry.Name())
		if !ok {
			s.logger.Debug("skipping non-snapshot entry", "name", entry.Name())
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}

		snapshots = append(snapshots, &Match{
			Path:       filepath.Join(root, entry.Name()),
			StoredName: entry.Name(),
			Name:       name,
			Timestamp:  ts,
			Size:       size,
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Name < b.Name
	})

	return snapshots, nil
}
