package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIntakeServer implements the presign, storage, and report endpoints a
// run touches.
type fakeIntakeServer struct {
	server *httptest.Server

	presigned int
	stored    map[string][]byte
	payload   map[string]any
}

func newFakeIntakeServer(t *testing.T) *fakeIntakeServer {
	t.Helper()
	s := &fakeIntakeServer{stored: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/s3/presign", func(w http.ResponseWriter, r *http.Request) {
		s.presigned++
		key := fmt.Sprintf("%s/%d_%s", r.URL.Query().Get("sessionId"), s.presigned, r.URL.Query().Get("filename"))
		json.NewEncoder(w).Encode(map[string]string{
			"uploadUrl": s.server.URL + "/storage/" + key,
			"key":       key,
		})
	})
	mux.HandleFunc("/storage/", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.stored[r.URL.Path[len("/storage/"):]] = data
	})
	mux.HandleFunc("/api/get-report", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&s.payload)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "analysis": "Reduce chiller setpoints."})
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	attachments = nil // flag state persists across executions
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommandFullFlow(t *testing.T) {
	backend := newFakeIntakeServer(t)

	intakePath := writeTempFile(t, "intake.yaml", `
customer:
  name: Amina Hassan
  email: amina@example.com
`)
	attachment := writeTempFile(t, "bill.pdf", "pdf-bytes")

	out, err := execute(t,
		"--server", backend.server.URL,
		"run", "-f", intakePath, "--attach", attachment)
	require.NoError(t, err)

	assert.Contains(t, out, "Uploaded 1 file(s).")
	assert.Contains(t, out, "Reduce chiller setpoints.")
	assert.Len(t, backend.stored, 1)

	require.NotNil(t, backend.payload)
	sessionID, _ := backend.payload["sessionId"].(string)
	assert.Regexp(t, `^sess_[a-zA-Z0-9]{1,24}$`, sessionID)

	files, _ := backend.payload["files"].([]any)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "bill.pdf")

	customerData, _ := backend.payload["customerData"].(map[string]any)
	require.NotNil(t, customerData)
	customer, _ := customerData["customer"].(map[string]any)
	assert.Equal(t, "Amina Hassan", customer["name"])
}

func TestRunCommandRejectsIncompleteForm(t *testing.T) {
	backend := newFakeIntakeServer(t)

	intakePath := writeTempFile(t, "intake.yaml", `
customer:
  name: Amina Hassan
`)

	_, err := execute(t, "--server", backend.server.URL, "run", "-f", intakePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready to run")
	assert.Zero(t, backend.presigned, "nothing may be uploaded for an invalid form")
}

func TestValidateCommand(t *testing.T) {
	intakePath := writeTempFile(t, "intake.yaml", `
customer:
  name: Amina Hassan
  email: amina@example.com
`)

	out, err := execute(t, "validate", "-f", intakePath)
	require.NoError(t, err)
	assert.Contains(t, out, "OK:")
}
