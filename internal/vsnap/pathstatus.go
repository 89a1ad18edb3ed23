package vsnap

// PathStatus classifies what, if anything, lives at a filesystem path.
type PathStatus int

const (
	Absent PathStatus = iota
	IsFile
	IsDirectory
)

func (s PathStatus) String() string {
	switch s {
	case IsFile:
		return "file"
	case IsDirectory:
		return "directory"
	default:
		return "absent"
	}
}
