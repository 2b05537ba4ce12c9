package driven

// DirectoryLister enumerates the documents of an input directory.
type DirectoryLister interface {
	// List returns the paths of the regular files directly inside dir,
	// sorted by name. Subdirectories are not descended into.
	List(dir string) ([]string, error)
}
