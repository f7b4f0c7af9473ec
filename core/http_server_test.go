package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-softwarelab/common/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, withService bool) *httptest.Server {
	t.Helper()
	s := NewHTTPServer(slogx.NewTestLogger(t), "127.0.0.1:0")
	if withService {
		s.SetVerifyService(newTestService(t))
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestHTTPServerVerify(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := post(t, srv.URL+"/verify", `{"tx":"`+genesisProvenTxHex+`","header":"`+genesisHeaderHex+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var res VerifyResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.True(t, res.Valid)
	require.Equal(t, genesisTxID, res.TxID)
}

func TestHTTPServerErrors(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := post(t, srv.URL+"/nope", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.JSONEq(t, `{"message":"unknown method: nope"}`, body)

	resp, err := http.Get(srv.URL + "/verify")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/verify", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}

func TestHTTPServerWithoutService(t *testing.T) {
	srv := newTestServer(t, false)

	resp, _ := post(t, srv.URL+"/verify", `{}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
