package zplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eliegoudout/zlevels/internal/canvas"
)

// levelServer answers getPixelLevel queries with level = x*scale + y in
// repo coordinates, mirroring the wire x/y swap.
func levelServer(t *testing.T, scale int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			OperationName string `json:"operationName"`
			Variables     struct {
				Pixel struct {
					X int `json:"x"`
					Y int `json:"y"`
				} `json:"pixel"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.OperationName != "getPixelLevel" {
			http.Error(w, "unknown operation", http.StatusBadRequest)
			return
		}
		// Wire x is the repo column, wire y the repo row.
		row, col := req.Variables.Pixel.Y, req.Variables.Pixel.X
		fmt.Fprintf(w, `{"data":{"getPixelLevel":{"x":%d,"y":%d,"level":%d}}}`,
			req.Variables.Pixel.X, req.Variables.Pixel.Y, int64(row)*scale+int64(col))
	}))
}

func TestPixelLevel(t *testing.T) {
	srv := levelServer(t, 4)
	defer srv.Close()

	c := NewClient(srv.URL, "Bearer test-token")

	t.Run("fetches level with swapped wire coordinates", func(t *testing.T) {
		level, err := c.PixelLevel(context.Background(), canvas.Coordinate{X: 2, Y: 3})
		if err != nil {
			t.Fatalf("PixelLevel: %v", err)
		}
		if level != 2*4+3 {
			t.Errorf("level = %d, want %d", level, 2*4+3)
		}
	})

	t.Run("origin pixel", func(t *testing.T) {
		level, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if err != nil {
			t.Fatalf("PixelLevel: %v", err)
		}
		if level != 0 {
			t.Errorf("level = %d, want 0", level)
		}
	})
}

func TestPixelLevelSendsAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":{"getPixelLevel":{"x":0,"y":0,"level":1}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Bearer secret")
	if _, err := c.PixelLevel(context.Background(), canvas.Coordinate{}); err != nil {
		t.Fatalf("PixelLevel: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
}

func TestPixelLevelErrors(t *testing.T) {
	t.Run("HTTP 401 is unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "")
		_, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if Classify(err) != ClassAuth {
			t.Errorf("Classify = %s, want %s", Classify(err), ClassAuth)
		}
	})

	t.Run("graphql UNAUTHENTICATED is unauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":[{"message":"not logged in","extensions":{"code":"UNAUTHENTICATED"}}]}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "Bearer expired")
		_, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("undecodable body is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>gateway error</html>")
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "")
		_, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
		if Classify(err) != ClassMalformed {
			t.Errorf("Classify = %s, want %s", Classify(err), ClassMalformed)
		}
	})

	t.Run("missing payload is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{}}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "")
		_, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("server unreachable is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := NewClient(srv.URL, "", WithTimeout(time.Second))
		_, err := c.PixelLevel(context.Background(), canvas.Coordinate{})
		if err == nil {
			t.Fatal("expected error from closed server")
		}
		if Classify(err) != ClassTransient {
			t.Errorf("Classify = %s, want %s", Classify(err), ClassTransient)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		srv := levelServer(t, 4)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(srv.URL, "")
		if _, err := c.PixelLevel(ctx, canvas.Coordinate{}); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestProbe(t *testing.T) {
	srv := levelServer(t, 4)
	defer srv.Close()

	c := NewClient(srv.URL, "Bearer ok")
	if err := c.Probe(context.Background()); err != nil {
		t.Errorf("Probe: %v", err)
	}
}
