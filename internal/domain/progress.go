package domain

// ProgressFunc reports download progress.
// Called repeatedly while copying: (32768, 1048576), (65536, 1048576), ...
// total is -1 when the server did not send a length.
type ProgressFunc func(loaded, total int64)

// InstallResult summarizes a finished install
type InstallResult struct {
	TaskID  string // Progress task that ran the install
	ItemKey string // Item the version belongs to
	Version string // Installed version number
	Path    string // Where the file was written
	Bytes   int64  // Size written
	Err     error  // Non-nil if the install failed
}
