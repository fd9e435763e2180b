package health

import (
	"net/http"

	process "github.com/s-larionov/process-manager"
)

func NewHealthCheckServer(address, path string, handler http.HandlerFunc) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(path, handler)

	return &http.Server{
		Addr:    address,
		Handler: mux,
	}
}

func DefaultHandler(_ *process.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
