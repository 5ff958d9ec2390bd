package source

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	transporthttp "github.com/gabapcia/tally/internal/pkg/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpener() *Opener {
	return New(transporthttp.NewClient(
		transporthttp.WithRetryMax(1),
		transporthttp.WithRetryWaitMin(time.Millisecond),
		transporthttp.WithRetryWaitMax(time.Millisecond),
	))
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestOpener_Open(t *testing.T) {
	t.Run("stdin for dash and empty location", func(t *testing.T) {
		for _, location := range []string{"", Stdin} {
			o := newOpener()
			o.stdin = strings.NewReader("a 1\n")

			rc, err := o.Open(t.Context(), location)
			require.NoError(t, err)
			assert.Equal(t, "a 1\n", readAll(t, rc))
		}
	})

	t.Run("local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.txt")
		require.NoError(t, os.WriteFile(path, []byte("k v\n"), 0o600))

		rc, err := newOpener().Open(t.Context(), path)
		require.NoError(t, err)
		assert.Equal(t, "k v\n", readAll(t, rc))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newOpener().Open(t.Context(), filepath.Join(t.TempDir(), "nope"))

		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("http url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte("x 1\ny 2\n"))
		}))
		defer srv.Close()

		rc, err := newOpener().Open(t.Context(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "x 1\ny 2\n", readAll(t, rc))
	})

	t.Run("http client error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newOpener().Open(t.Context(), srv.URL)

		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("http server error is retried then reported", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newOpener().Open(t.Context(), srv.URL)

		assert.Error(t, err)
		assert.Equal(t, 2, calls, "one initial attempt plus one retry")
	})
}
