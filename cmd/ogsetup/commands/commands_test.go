package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"github.com/systmms/ogsetup/internal/config"
	"github.com/systmms/ogsetup/tests/fakes"
	"github.com/systmms/ogsetup/tests/testutil"
)

func init() {
	keyring.MockInit()
}

const validKey = "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"

// testEnv is a fake splunkd plus a config file pointing at it.
type testEnv struct {
	Store   *fakes.FakeStore
	Splunkd *fakes.FakeSplunkd
	URL     string
	Config  *config.Config
	Log     *testutil.TestLogger
}

// newTestEnv starts a fake splunkd over backend (a fresh store when nil).
// configure, when set, adjusts the ogsetup.yaml written for the test.
func newTestEnv(t *testing.T, backend *fakes.FakeStore, configure func(*testutil.TestConfigBuilder)) *testEnv {
	t.Helper()

	if backend == nil {
		backend = fakes.NewFakeStore()
	}
	fake := fakes.NewFakeSplunkd(backend)
	server := fake.Start()
	t.Cleanup(server.Close)

	builder := testutil.NewTestConfig(t).
		WithSplunkdURL(server.URL).
		WithTimeout(5000)
	if configure != nil {
		configure(builder)
	}

	log := testutil.NewTestLogger(t)
	return &testEnv{
		Store:   backend,
		Splunkd: fake,
		URL:     server.URL,
		Log:     log,
		Config: &config.Config{
			Path:           builder.Write(),
			Logger:         log.Logger,
			NonInteractive: true,
			Required:       true,
		},
	}
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
