package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonniRodriguez/idea-inc/internal/control"
	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmanager"
)

func newTestServer(t *testing.T, adminKey string) (*httptest.Server, func()) {
	t.Helper()
	mgr := simmanager.New(0, mutation.Deterministic{}, nil, nil)
	surface := control.New(mgr)
	srv := NewServer(surface, adminKey, nil)
	ts := httptest.NewServer(srv)
	return ts, func() { ts.Close(); mgr.Shutdown() }
}

func createWorldBodyJSON() []byte {
	b, _ := json.Marshal(createWorldBody{
		Name:           "w1",
		CreatorID:      "c",
		PopulationSize: 100,
		NetworkType:    "random",
		NetworkDensity: 0.05,
		TimeStepMs:     10,
	})
	return b
}

func TestListWorlds_EmptyByDefault(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	resp, err := http.Get(ts.URL + "/worlds")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var worlds []simmanager.WorldSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&worlds))
	assert.Empty(t, worlds)
}

func TestCreateWorld_RequiresAdminKey(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	resp, err := http.Post(ts.URL+"/worlds", "application/json", bytes.NewReader(createWorldBodyJSON()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateWorld_DisabledWithoutServerAdminKey(t *testing.T) {
	ts, closeFn := newTestServer(t, "")
	defer closeFn()

	resp, err := http.Post(ts.URL+"/worlds", "application/json", bytes.NewReader(createWorldBodyJSON()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func doAdmin(t *testing.T, method, url, adminKey string, body []byte) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateWorld_SucceedsWithAdminKey(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	resp := doAdmin(t, http.MethodPost, ts.URL+"/worlds", "secret", createWorldBodyJSON())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view worldViewBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "w1", view.Name)
	assert.Equal(t, 100, view.Population)
}

func TestGetWorld_InvalidIDIsBadRequest(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	resp, err := http.Get(ts.URL + "/worlds/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorld_UnknownValidIDIsNotFound(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	resp, err := http.Get(ts.URL + "/worlds/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NotFound", body.Kind)
}

func TestFullWorldLifecycle_StartStepStopInjectLeaderboard(t *testing.T) {
	ts, closeFn := newTestServer(t, "secret")
	defer closeFn()

	createResp := doAdmin(t, http.MethodPost, ts.URL+"/worlds", "secret", createWorldBodyJSON())
	var created worldViewBody
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	createResp.Body.Close()

	base := ts.URL + "/worlds/" + created.ID.String()

	startResp := doAdmin(t, http.MethodPost, base+"/start", "secret", nil)
	require.Equal(t, http.StatusOK, startResp.StatusCode)
	startResp.Body.Close()

	time.Sleep(30 * time.Millisecond)

	stopResp := doAdmin(t, http.MethodPost, base+"/stop", "secret", nil)
	require.Equal(t, http.StatusOK, stopResp.StatusCode)
	stopResp.Body.Close()

	injectBody, _ := json.Marshal(injectIdeaBody{CreatorID: "c", Text: "idea", InitialAdopters: 5})
	injectResp := doAdmin(t, http.MethodPost, base+"/ideas", "secret", injectBody)
	require.Equal(t, http.StatusCreated, injectResp.StatusCode)
	injectResp.Body.Close()

	stepResp := doAdmin(t, http.MethodPost, base+"/step?n=1", "secret", nil)
	require.Equal(t, http.StatusOK, stepResp.StatusCode)
	stepResp.Body.Close()

	leaderboardResp, err := http.Get(base + "/leaderboard")
	require.NoError(t, err)
	defer leaderboardResp.Body.Close()
	assert.Equal(t, http.StatusOK, leaderboardResp.StatusCode)

	deleteResp := doAdmin(t, http.MethodDelete, base, "secret", nil)
	defer deleteResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, deleteResp.StatusCode)
}
