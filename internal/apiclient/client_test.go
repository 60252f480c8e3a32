// File: internal/apiclient/client_test.go
package apiclient

import (
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/veraqa/shoptest/api/schemas"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(5*time.Second, zaptest.NewLogger(t))
}

func TestDoPostsJSONAndCapturesBody(t *testing.T) {
	var gotContentType, gotAccept, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"userId":7,"username":"firstuser"}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{
		Method:   http.MethodPost,
		URL:      srv.URL + "/api/auth/register",
		JSONBody: map[string]string{"username": "firstuser"},
	})
	require.NoError(t, err)

	assert.Equal(t, 201, resp.Status)
	assert.True(t, resp.OK())
	assert.Contains(t, gotContentType, "application/json")
	assert.Equal(t, "application/json", gotAccept)
	assert.JSONEq(t, `{"username":"firstuser"}`, gotBody)

	var body struct {
		UserID   int64  `json:"userId"`
		Username string `json:"username"`
	}
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, int64(7), body.UserID)
}

func TestDoReturnsNonSuccessStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid email or password"}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Status)
	assert.False(t, resp.OK())

	var apiErr schemas.APIError
	require.NoError(t, resp.JSON(&apiErr))
	assert.Equal(t, "Invalid email or password", apiErr.Text())
}

func TestDoMapsDeadlineToTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t)
	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrTimeout)
}

func TestJSONOnMalformedBody(t *testing.T) {
	resp := &Response{Status: 200, BodyText: "<html>oops</html>"}

	var out map[string]any
	err := resp.JSON(&out)
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedResponse)
}

func TestHasField(t *testing.T) {
	resp := &Response{Status: 200, BodyText: `{"userId":7,"email":"a@b.c","password":null}`}

	assert.True(t, resp.HasField("userId"))
	assert.True(t, resp.HasField("password")) // null still counts as present
	assert.False(t, resp.HasField("refreshToken"))

	broken := &Response{Status: 200, BodyText: "not json"}
	assert.False(t, broken.HasField("anything"))
}

func TestGzipResponseIsTransparent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"products":[]}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"products":[]}`, resp.BodyText)
}

func TestBrotliResponseIsTransparent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		_, _ = bw.Write([]byte(`{"ok":true}`))
		_ = bw.Close()
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, resp.BodyText)
}

func TestZlibWrappedDeflate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		zw := zlib.NewWriter(w)
		_, _ = zw.Write([]byte(`{"kind":"zlib"}`))
		_ = zw.Close()
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"zlib"}`, resp.BodyText)
}

func TestRawDeflate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		fw, _ := flate.NewWriter(w, flate.DefaultCompression)
		_, _ = fw.Write([]byte(`{"kind":"raw"}`))
		_ = fw.Close()
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"raw"}`, resp.BodyText)
}

func TestIsZlibHeader(t *testing.T) {
	assert.True(t, isZlibHeader([]byte{0x78, 0x9c}))
	assert.True(t, isZlibHeader([]byte{0x78, 0x01}))
	assert.False(t, isZlibHeader([]byte{0x1f, 0x8b})) // gzip magic
	assert.False(t, isZlibHeader([]byte{0x78}))
	assert.False(t, isZlibHeader(nil))
}

func TestCookiesPersistAcrossCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc123", Path: "/"})
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t)
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL + "/login"})
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/profile"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}
