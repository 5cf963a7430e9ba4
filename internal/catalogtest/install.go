package catalogtest

import (
	"sync"

	"github.com/mmcdole/modbrowse/internal/domain"
)

// InstallCall records one Install invocation
type InstallCall struct {
	Key          string
	VersionIndex int
}

// Installer records install requests
type Installer struct {
	mu    sync.Mutex
	calls []InstallCall
	Err   error
}

// Install implements domain.Installer
func (i *Installer) Install(detail *domain.Detail, versionIndex int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.Err != nil {
		return i.Err
	}
	i.calls = append(i.calls, InstallCall{Key: detail.Item.Key(), VersionIndex: versionIndex})
	return nil
}

// Calls returns the recorded installs
func (i *Installer) Calls() []InstallCall {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]InstallCall(nil), i.calls...)
}

// Tasks is a settable domain.TaskState
type Tasks bool

// TasksRunning implements domain.TaskState
func (t *Tasks) TasksRunning() bool {
	return bool(*t)
}
