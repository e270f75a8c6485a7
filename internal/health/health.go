// Package health serves the liveness and readiness probes.
package health

import (
	"io"
	"net/http"
)

func respond(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, body)
}

// Healthz reports process liveness. It never fails; a wedged process simply
// stops answering.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, "ok\n")
}

// Readyz reports readiness to serve. The engine holds no external
// connections or warm-up state, so readiness follows liveness.
func Readyz(w http.ResponseWriter, _ *http.Request) {
	respond(w, "ready\n")
}
