package radar

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"tailscale.com/tsweb"

	"github.com/banshee-data/mmwave/internal/httputil"
)

//go:embed templates/*
var adminTemplateFS embed.FS

var sendCommandTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/send-command.html.tmpl"))

// AttachAdminRoutes attaches the radar debug endpoints to mux under /debug/.
// tsweb restricts them to localhost and the tailnet.
func (m *Monitor) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.KVFunc("radar mode", func() any { return m.driver.Mode().String() })
	debug.KVFunc("radar frames", func() any { return m.driver.Snapshot().Frames })

	debug.HandleFunc("radar-status", "latest radar readings as JSON", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, m.driver.Snapshot())
	})

	debug.HandleFunc("send-command", "query or reconfigure the radar", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		data := struct {
			Mode    Mode
			Queries []Op
		}{m.driver.Mode(), Queries()}
		if err := sendCommandTemplate.Execute(buf, data); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	// Runs one query, or reset/set_mode, and writes the resulting snapshot.
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w, http.MethodPost)
			return
		}
		op := Op(strings.TrimSpace(r.FormValue("op")))
		var err error
		switch op {
		case "":
			httputil.BadRequest(w, "missing op")
			return
		case OpReset:
			err = m.driver.Reset()
		case OpSetMode:
			var mode Mode
			if mode, err = ParseMode(r.FormValue("mode")); err == nil {
				err = m.driver.SetMode(mode)
			}
		default:
			_, err = m.driver.Ask(r.Context(), op)
		}
		if err != nil {
			httputil.Error(w, err, statusFor)
			return
		}
		httputil.WriteJSONOK(w, m.driver.Snapshot())
	})

	// Server-sent events, one JSON snapshot per batch of frames.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, c := m.Subscribe()
		defer m.Unsubscribe(id)

		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case snap, ok := <-c:
				if !ok {
					return
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidValue), errors.Is(err, ErrNotApplicable):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
