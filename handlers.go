package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Afveis/cornerstones/diagram"
)

// maxBodyBytes bounds request bodies of mutation endpoints
const maxBodyBytes = 1 << 20

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(app.Logger))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			Version    uint64    `json:"version"`
			Indicators int       `json:"indicators"`
			MQTT       bool      `json:"mqtt"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			Version:    app.Engine.Version(),
			Indicators: len(app.Engine.Indicators()),
			MQTT:       app.MQTTClient != nil && app.MQTTClient.IsConnected(),
		}
		writeJSONResponse(w, app.Logger, http.StatusOK, status)
	})

	r.Get("/workspace", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, app.Logger, http.StatusOK, app.Engine.Snapshot())
	})

	r.Post("/commands", func(w http.ResponseWriter, r *http.Request) {
		var cmd diagram.Command
		if !decodeBody(w, r, &cmd) {
			return
		}
		respondCommand(w, app, cmd)
	})

	r.Route("/template", func(tr chi.Router) {
		tr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSONResponse(w, app.Logger, http.StatusOK, app.Engine.Template())
		})
		tr.Put("/groups", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Count int `json:"count"`
			}
			if !decodeBody(w, r, &body) {
				return
			}
			respondCommand(w, app, diagram.Command{Op: diagram.CmdResizeGroups, Count: body.Count})
		})
		tr.Put("/slice-count", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Count int `json:"count"`
			}
			if !decodeBody(w, r, &body) {
				return
			}
			respondCommand(w, app, diagram.Command{Op: diagram.CmdDefaultSlices, Count: body.Count})
		})
		tr.Route("/groups/{group}", func(gr chi.Router) {
			gr.Put("/slices", func(w http.ResponseWriter, r *http.Request) {
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				var body struct {
					Count int `json:"count"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdResizeSlices, Group: g, Count: body.Count})
			})
			gr.Put("/color", func(w http.ResponseWriter, r *http.Request) {
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				var body struct {
					Color        *string `json:"color"`
					RankingColor *string `json:"rankingColor"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{
					Op: diagram.CmdRecolorGroup, Group: g, Color: body.Color, RankingColor: body.RankingColor,
				})
			})
			gr.Put("/label", func(w http.ResponseWriter, r *http.Request) {
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				var body struct {
					Label string `json:"label"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdRenameGroup, Group: g, Label: body.Label})
			})
			gr.Put("/slices/{slice}/label", func(w http.ResponseWriter, r *http.Request) {
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				s, ok := intParam(w, r, "slice")
				if !ok {
					return
				}
				var body struct {
					Label string `json:"label"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdRenameSlice, Group: g, Slice: s, Label: body.Label})
			})
		})
	})

	r.Route("/indicators", func(ir chi.Router) {
		ir.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSONResponse(w, app.Logger, http.StatusOK, app.Engine.Indicators())
		})
		ir.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				CenterImage string `json:"centerImage"`
			}
			if r.ContentLength != 0 && !decodeBody(w, r, &body) {
				return
			}
			res, err := app.Execute(diagram.Command{Op: diagram.CmdAddIndicator, Label: body.CenterImage})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSONResponse(w, app.Logger, http.StatusCreated, res)
		})

		ir.Route("/{id}", func(one chi.Router) {
			one.Get("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				ind, err := app.Engine.Indicator(id)
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSONResponse(w, app.Logger, http.StatusOK, ind)
			})
			one.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdRemoveIndicator, Indicator: id})
			})
			one.Put("/active", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdSetActive, Indicator: id})
			})
			one.Put("/name", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				var body struct {
					Name string `json:"name"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdRenameIndicator, Indicator: id, Label: body.Name})
			})
			one.Put("/center-image", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				var body struct {
					CenterImage string `json:"centerImage"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{Op: diagram.CmdSetCenterImage, Indicator: id, Label: body.CenterImage})
			})
			one.Put("/groups/{group}/slices/{slice}/progress", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				s, ok := intParam(w, r, "slice")
				if !ok {
					return
				}
				var body struct {
					Value int  `json:"value"`
					Delta *int `json:"delta"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				cmd := diagram.Command{Op: diagram.CmdSetProgress, Indicator: id, Group: g, Slice: s, Value: body.Value}
				if body.Delta != nil {
					cmd.Op = diagram.CmdBumpProgress
					cmd.Value = *body.Delta
				}
				respondCommand(w, app, cmd)
			})
			one.Put("/groups/{group}/slices/{slice}/description", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				g, ok := intParam(w, r, "group")
				if !ok {
					return
				}
				s, ok := intParam(w, r, "slice")
				if !ok {
					return
				}
				var body struct {
					Description string `json:"description"`
				}
				if !decodeBody(w, r, &body) {
					return
				}
				respondCommand(w, app, diagram.Command{
					Op: diagram.CmdDescribeSlice, Indicator: id, Group: g, Slice: s, Label: body.Description,
				})
			})

			one.Get("/diagram.svg", renderHandler(app, FormatSVG))
			one.Get("/diagram.png", renderHandler(app, FormatPNG))
			one.Get("/markup.svg", renderHandler(app, FormatMarkup))
			one.Get("/scene.json", renderHandler(app, FormatJSON))

			one.Get("/hit", func(w http.ResponseWriter, r *http.Request) {
				id, ok := indicatorParam(w, r, app)
				if !ok {
					return
				}
				x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
				y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
				if errX != nil || errY != nil {
					http.Error(w, "x and y query parameters are required", http.StatusBadRequest)
					return
				}
				ind, err := app.Engine.Indicator(id)
				if err != nil {
					writeError(w, err)
					return
				}
				pg := diagram.NewPathGenerator(app.Config.Diagram, ind.Groups)
				g, s, hit := pg.HitTest(orb.Point{x, y})
				resp := struct {
					Hit         bool   `json:"hit"`
					Group       int    `json:"group"`
					Slice       int    `json:"slice"`
					Label       string `json:"label,omitempty"`
					Progress    int    `json:"progress"`
					Description string `json:"description,omitempty"`
				}{Hit: hit, Group: -1, Slice: -1}
				if hit {
					sl := ind.Groups[g].Slices[s]
					resp.Group, resp.Slice = g, s
					resp.Label = sl.DisplayLabel(s)
					resp.Progress = sl.Progress
					resp.Description = sl.Description
				}
				writeJSONResponse(w, app.Logger, http.StatusOK, resp)
			})
		})
	})

	// Default route serves an HTML page embedding the active indicator
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>cornerstones</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
html,body{width:100%;height:100%;overflow:hidden;background:#f9fafb}
img{display:block;width:100vw;height:100vh;object-fit:contain}
</style>
</head>
<body>
<img src="/indicators/active/markup.svg" alt="Indicator">
</body>
</html>`)
	})

	return r
}

// renderHandler serves an indicator in one output format
func renderHandler(app *App, format string) http.HandlerFunc {
	contentType := map[string]string{
		FormatSVG:    "image/svg+xml",
		FormatPNG:    "image/png",
		FormatMarkup: "image/svg+xml",
		FormatJSON:   "application/json",
	}[format]

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := indicatorParam(w, r, app)
		if !ok {
			return
		}
		if _, err := app.Engine.Indicator(id); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		if err := app.RenderIndicator(w, id, format); err != nil {
			app.Logger.Error("rendering indicator", zap.Int("id", id), zap.String("format", format), zap.Error(err))
		}
	}
}

// respondCommand executes cmd and maps the outcome to a status code:
// 200 applied, 422 rejected, 404 unknown indicator, 400 bad request
func respondCommand(w http.ResponseWriter, app *App, cmd diagram.Command) {
	res, err := app.Execute(cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if !res.Applied {
		status = http.StatusUnprocessableEntity
	}
	writeJSONResponse(w, app.Logger, status, res)
}

// indicatorParam resolves the {id} URL parameter; "active" selects the active indicator
func indicatorParam(w http.ResponseWriter, r *http.Request, app *App) (int, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "active" {
		id := app.Engine.ActiveID()
		if id == 0 {
			http.Error(w, "no active indicator", http.StatusNotFound)
			return 0, false
		}
		return id, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		http.Error(w, fmt.Sprintf("invalid indicator id %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid %s %q", name, raw), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, diagram.ErrIndicatorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, diagram.ErrUnknownCommand), errors.Is(err, diagram.ErrInvalidColor):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSONResponse(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := writeJSON(w, v); err != nil {
		logger.Error("encoding response", zap.Error(err))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// requestLogger logs every request with its status and duration
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr))
		})
	}
}
