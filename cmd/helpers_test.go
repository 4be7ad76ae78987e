// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/config"
	"github.com/xkilldash9x/fairgraph/internal/mocks"
	"github.com/xkilldash9x/fairgraph/internal/observability"
)

// scoreCorpus holds one graph per scoring situation: a fairness patient, a
// fairness root, a malformed block and a graph without fairness.
const scoreCorpus = `# ::id doc.1
(w / want-01
   :ARG0 (p / person)
   :ARG1 (f / fairness))

# ::id doc.2
(f / fair-01
   :ARG1 (s / system))

# ::id doc.3
(a / fairness :ARG0

# ::id doc.4
(d / dog)
`

const multiCorpus = `(m / multi-sentence
   :snt1 (w / want-01
      :ARG1 (f / fairness))
   :snt2 (d / dog))

(r / rain-01)
`

// captureLogs routes the global logger into a buffer for the duration of the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	observability.ResetForTest()
	observability.Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "test"}, zapcore.AddSync(buf))
	t.Cleanup(observability.ResetForTest)
	return buf
}

// syncBuffer is a bytes.Buffer safe for the concurrent block workers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolateEnv clears variables that would otherwise leak host configuration into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "FAIRGRAPH_DATABASE_URL", "FAIRGRAPH_METRICS_TEXTFILE", "FAIRGRAPH_OUTPUT_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// executeCommand runs a fresh command tree and returns what it printed to stdout.
func executeCommand(t *testing.T, provider storeProvider, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(provider)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// -- Store mocks --

type mockStoreProvider struct {
	store    *mocks.MockStore
	err      error
	calls    int
	cleanups int
}

func (p *mockStoreProvider) Create(_ context.Context, _ config.Interface) (schemas.Store, func(), error) {
	p.calls++
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.store, func() { p.cleanups++ }, nil
}
