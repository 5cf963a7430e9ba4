package install

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/loop"
	"github.com/mmcdole/modbrowse/internal/progress"
	"github.com/mmcdole/modbrowse/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *worker.Deferred, *loop.Queue, *progress.Counter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "mods")
	exec := &worker.Deferred{}
	q := &loop.Queue{}
	tasks := progress.NewCounter(q, nil)
	return New(Config{Dir: dir, UserAgent: "modbrowse-test"}, exec, q, tasks, nil), exec, q, tasks, dir
}

func TestInstallWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "modbrowse-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("jar-bytes"))
	}))
	defer srv.Close()

	svc, exec, q, tasks, dir := newService(t)
	var results []domain.InstallResult
	svc.OnResult(func(r domain.InstallResult) { results = append(results, r) })
	var lastLoaded int64
	svc.OnProgress(func(_ string, loaded, _ int64) { lastLoaded = loaded })

	detail := &domain.Detail{
		Item: domain.Item{ID: "AANobbMI", Title: "Sodium", Source: domain.SourceModrinth},
		Versions: []domain.Version{
			{Number: "0.5.8", FileURL: srv.URL + "/files/sodium-0.5.8.jar", FileName: "sodium-0.5.8.jar"},
		},
	}

	require.NoError(t, svc.Install(detail, 0))
	assert.True(t, tasks.TasksRunning(), "task counted while scheduled")

	exec.RunAll()
	q.Drain()

	assert.False(t, tasks.TasksRunning())
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "modrinth:AANobbMI", results[0].ItemKey)
	assert.Equal(t, int64(9), results[0].Bytes)
	assert.Equal(t, int64(9), lastLoaded)

	data, err := os.ReadFile(filepath.Join(dir, "sodium-0.5.8.jar"))
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))
}

func TestInstallReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc, exec, q, _, _ := newService(t)
	var res domain.InstallResult
	svc.OnResult(func(r domain.InstallResult) { res = r })

	detail := &domain.Detail{Versions: []domain.Version{{Number: "1", FileURL: srv.URL + "/x.jar"}}}
	require.NoError(t, svc.Install(detail, 0))
	exec.RunAll()
	q.Drain()

	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
}

func TestInstallRejectsBadVersion(t *testing.T) {
	svc, _, _, tasks, _ := newService(t)

	assert.ErrorIs(t, svc.Install(nil, 0), domain.ErrNoVersion)
	assert.ErrorIs(t, svc.Install(&domain.Detail{}, 0), domain.ErrNoVersion)
	assert.ErrorIs(t, svc.Install(&domain.Detail{Versions: []domain.Version{{Number: "1"}}}, 0), domain.ErrNoVersion)
	assert.False(t, tasks.TasksRunning())
}

func TestInstallScheduleFailureEndsTask(t *testing.T) {
	svc, exec, _, tasks, _ := newService(t)
	exec.Close()

	detail := &domain.Detail{Versions: []domain.Version{{Number: "1", FileURL: "http://localhost/x.jar"}}}
	err := svc.Install(detail, 0)

	assert.ErrorIs(t, err, worker.ErrPoolClosed)
	assert.False(t, tasks.TasksRunning())
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		v    domain.Version
		want string
	}{
		{"explicit", domain.Version{FileName: "a.jar"}, "a.jar"},
		{"from url", domain.Version{FileURL: "https://cdn.example/data/x/versions/y/b.jar"}, "b.jar"},
		{"strips directories", domain.Version{FileName: "../../etc/c.jar"}, "c.jar"},
		{"windows separators", domain.Version{FileName: `..\d.jar`}, "d.jar"},
		{"nothing usable", domain.Version{FileURL: "https://cdn.example/"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.v))
		})
	}
}
