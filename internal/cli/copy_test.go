package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfs/azxfer/internal/model"
	"github.com/cloudfs/azxfer/internal/preflight"
	"github.com/cloudfs/azxfer/internal/transfer"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AZXFER_SOURCE_URL", "AZXFER_SOURCE_SAS", "AZXFER_DEST_URL", "AZXFER_DEST_SAS",
		"AZXFER_LOG_DIR", "AZXFER_AZCOPY_PATH", "AZXFER_PREFLIGHT", "AZXFER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func fakeAzcopy(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "azcopy")
	script := fmt.Sprintf("#!/bin/sh\necho \"transferred\"\necho \"failed hard\" >&2\nexit %d\n", code)
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func copyArgs(azcopy, logDir string) []string {
	return []string{
		"copy",
		"--source", "https://a.blob.core.windows.net/c/p",
		"--source-sas", "sig=abc",
		"--dest", "https://b.blob.core.windows.net/c/p",
		"--dest-sas", "sig=xyz",
		"--log-dir", logDir,
		"--azcopy", azcopy,
	}
}

func TestCopySuccess(t *testing.T) {
	clearEnv(t)
	logDir := filepath.Join(t.TempDir(), "logs")

	stdout, stderr, err := run(t, copyArgs(fakeAzcopy(t, 0), logDir)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "transferred")
	assert.Contains(t, stdout, transfer.SuccessMessage)
	assert.NotContains(t, stdout, transfer.FailureMessage)
	assert.Contains(t, stderr, "run_id=")
	assert.NotContains(t, stderr, "sig=abc")
	assert.DirExists(t, logDir)
}

func TestCopyFailureExitCode(t *testing.T) {
	clearEnv(t)

	for _, code := range []int{1, 127} {
		stdout, _, err := run(t, copyArgs(fakeAzcopy(t, code), t.TempDir())...)

		var exitErr *ExitCodeError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, code, exitErr.Code)
		assert.Contains(t, stdout, "Error occurred during AzCopy transfer: failed hard")
		assert.Contains(t, stdout, transfer.FailureMessage)
		assert.NotContains(t, stdout, transfer.SuccessMessage)
	}
}

func TestCopyMissingBinary(t *testing.T) {
	clearEnv(t)

	_, _, err := run(t, copyArgs(filepath.Join(t.TempDir(), "absent"), t.TempDir())...)

	var launchErr *transfer.LaunchError
	assert.True(t, errors.As(err, &launchErr))
}

func TestCopyDryRunSpawnsNothing(t *testing.T) {
	clearEnv(t)
	logDir := filepath.Join(t.TempDir(), "logs")

	args := append(copyArgs("azcopy", logDir), "--dry-run")
	stdout, _, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "azcopy copy https://a.blob.core.windows.net/c/p?REDACTED")
	assert.Contains(t, stdout, "--log-file="+logDir+"/azcopy.log")
	assert.NotContains(t, stdout, "sig=")
	assert.NoDirExists(t, logDir)
}

func TestCopyReadsEnvironment(t *testing.T) {
	clearEnv(t)
	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("AZXFER_SOURCE_URL", "https://a.blob.core.windows.net/c/p")
	t.Setenv("AZXFER_SOURCE_SAS", "sig=abc")
	t.Setenv("AZXFER_DEST_URL", "https://b.blob.core.windows.net/c/p")
	t.Setenv("AZXFER_DEST_SAS", "sig=xyz")
	t.Setenv("AZXFER_LOG_DIR", logDir)
	t.Setenv("AZXFER_AZCOPY_PATH", "azcopy")

	stdout, _, err := run(t, "copy", "--dry-run", "--dest-sas", "sig=override")
	require.NoError(t, err)
	assert.Contains(t, stdout, "https://b.blob.core.windows.net/c/p?REDACTED")
	assert.Contains(t, stdout, "--log-file="+logDir+"/azcopy.log")
}

func TestCopyRejectsIncompleteRequest(t *testing.T) {
	clearEnv(t)

	_, _, err := run(t, "copy", "--source", "https://a.blob.core.windows.net/c/p")

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Missing, "source credential")
	assert.NotContains(t, verr.Missing, "log directory")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "azxfer dev\n", stdout)
}

func TestCopyPreflightAllowsNewDestinationContainer(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/devstoreaccount1/fresh") {
			w.Header().Set("x-ms-error-code", "ContainerNotFound")
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	stdout, _, err := run(t,
		"copy", "--preflight",
		"--source", srv.URL+"/devstoreaccount1/src/p",
		"--source-sas", "sig=abc",
		"--dest", srv.URL+"/devstoreaccount1/fresh/p",
		"--dest-sas", "sig=xyz",
		"--log-dir", t.TempDir(),
		"--azcopy", fakeAzcopy(t, 0),
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, transfer.SuccessMessage)
}

func TestCopyPreflightStopsOnMissingSource(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ms-error-code", "ContainerNotFound")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	stdout, _, err := run(t,
		"copy", "--preflight",
		"--source", srv.URL+"/devstoreaccount1/gone/p",
		"--source-sas", "sig=abc",
		"--dest", srv.URL+"/devstoreaccount1/dst/p",
		"--dest-sas", "sig=xyz",
		"--log-dir", t.TempDir(),
		"--azcopy", fakeAzcopy(t, 0),
	)
	var perr *preflight.Error
	require.True(t, errors.As(err, &perr))
	assert.NotContains(t, stdout, "transferred")
}
