package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/bx-d/hello-dual/middleware"
)

// EchoBody is the body of every HTTP response.
const EchoBody = "Hello from HTTP server!"

// Response is what an HTTP handler in the middleware chain produces.
type Response struct {
	Status int
	Body   []byte
}

// Echo ignores the request entirely and never fails.
func Echo(_ context.Context, _ *http.Request) (*Response, error) {
	return &Response{Status: http.StatusOK, Body: []byte(EchoBody)}, nil
}

// HTTPHandler adapts h to net/http. A caller-supplied X-Request-ID is put in
// the context before h runs. A nil Response is an empty 200.
func HTTPHandler(h middleware.HandlerFunc[*http.Request, *Response], logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := strings.TrimSpace(r.Header.Get(middleware.HeaderXRequestID)); id != "" {
			ctx = middleware.WithRequestID(ctx, id)
		}

		resp, err := h(ctx, r)
		if err != nil {
			logger.Error("HTTP handler failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if resp == nil {
			resp = &Response{}
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(resp.Body)
	})
}

func newHTTPHandler(logger *zap.Logger) http.Handler {
	chain := middleware.Chain(
		middleware.Logging[*http.Request, *Response](logger, describeHTTPRequest),
	)
	return HTTPHandler(chain(Echo), logger)
}

func describeHTTPRequest(r *http.Request) string {
	return fmt.Sprintf("%s %s %s from %s", r.Method, r.URL.RequestURI(), r.Proto, r.RemoteAddr)
}
