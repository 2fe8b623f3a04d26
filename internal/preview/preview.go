// Package preview serves sampled channel values and warped times over a
// websocket.
//
// A client connects to /ws with the sampling window in the query string:
//
//	/ws?from=0&to=48&step=0.5&channel=opacity&warp=slow
//
// from, to and step are in ticks. Without channel or warp parameters, all
// channels and warps of the scene are sampled. The server sends one [Frame]
// per sample time, from from to to inclusive, and then closes the connection
// normally. Invalid requests are closed with a policy violation.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/curvefile"
)

// DefaultMaxFrames is the default limit on the number of frames per request.
const DefaultMaxFrames = 100_000

var errBadRequest = errors.New("bad request")

// Frame holds the samples at one time. Channels without a value at T are
// omitted from Values. Warps contribute the time they map T to, in ticks.
type Frame struct {
	T      float64            `json:"t"`
	Values map[string]float64 `json:"values"`
}

// Server streams samples of a scene. The scene must not be modified while
// the server uses it; use [Server.SetScene] to switch to a different one.
type Server struct {
	MaxFrames    int
	WriteTimeout time.Duration

	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	scene *curvefile.Scene
}

func NewServer(scene *curvefile.Scene, log zerolog.Logger) *Server {
	return &Server{
		MaxFrames:    DefaultMaxFrames,
		WriteTimeout: 5 * time.Second,
		log:          log,
		upgrader:     websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		scene:        scene,
	}
}

// SetScene replaces the scene and returns the previous one. Streams that are
// already running finish with the previous scene.
func (s *Server) SetScene(scene *curvefile.Scene) *curvefile.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.scene
	s.scene = scene
	return old
}

func (s *Server) currentScene() *curvefile.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene
}

// Handler returns a handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleSamples)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

type request struct {
	from, step float64
	n          int
	channels   []string
	warps      []string
}

func (s *Server) parseRequest(q url.Values, scene *curvefile.Scene) (request, error) {
	var req request
	num := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, q.Get(name))
		}
		return v, nil
	}
	from, err := num("from")
	if err != nil {
		return req, err
	}
	to, err := num("to")
	if err != nil {
		return req, err
	}
	step, err := num("step")
	if err != nil {
		return req, err
	}
	if step <= 0 || to < from {
		return req, fmt.Errorf("%w: empty window [%g, %g] step %g", errBadRequest, from, to, step)
	}
	n := math.Floor((to-from)/step) + 1
	if n > float64(s.MaxFrames) {
		return req, fmt.Errorf("%w: %g frames exceeds limit of %d", errBadRequest, n, s.MaxFrames)
	}
	req.from, req.step, req.n = from, step, int(n)

	req.channels, req.warps = q["channel"], q["warp"]
	if req.channels == nil && req.warps == nil {
		req.channels, req.warps = scene.ChannelNames(), scene.WarpNames()
	}
	for _, name := range req.channels {
		if _, ok := scene.Channels[name]; !ok {
			return req, fmt.Errorf("%w: unknown channel %q", errBadRequest, name)
		}
	}
	for _, name := range req.warps {
		if _, ok := scene.Warps[name]; !ok {
			return req, fmt.Errorf("%w: unknown warp %q", errBadRequest, name)
		}
	}
	return req, nil
}

func sample(scene *curvefile.Scene, req request, i int) Frame {
	t := req.from + float64(i)*req.step
	ft := frametime.FromFloat(t)
	f := Frame{T: t, Values: make(map[string]float64, len(req.channels)+len(req.warps))}
	for _, name := range req.channels {
		if v, ok := scene.Channels[name].Evaluate(ft); ok {
			f.Values[name] = v
		}
	}
	for _, name := range req.warps {
		f.Values[name] = scene.Warps[name].RemapTime(ft).Float()
	}
	return f
}

// HandleSamples upgrades the connection and streams the requested samples.
func (s *Server) HandleSamples(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	scene := s.currentScene()
	req, err := s.parseRequest(r.URL.Query(), scene)
	if err != nil {
		s.log.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("rejected preview request")
		s.close(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}
	s.log.Debug().
		Float64("from", req.from).
		Float64("step", req.step).
		Int("frames", req.n).
		Msg("streaming preview")

	for i := 0; i < req.n; i++ {
		conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
		if err := conn.WriteJSON(sample(scene, req, i)); err != nil {
			s.log.Debug().Err(err).Int("frame", i).Msg("write frame")
			return
		}
	}
	s.close(conn, websocket.CloseNormalClosure, "")
}

func (s *Server) close(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.WriteTimeout)); err != nil {
		s.log.Debug().Err(err).Msg("write close")
	}
}

// HandleHealth reports the names of the scene's channels and warps.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	scene := s.currentScene()
	resp := map[string]any{
		"channels":        scene.ChannelNames(),
		"warps":           scene.WarpNames(),
		"tick_resolution": scene.Rate.AsDecimal(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Debug().Err(err).Msg("write health")
	}
}
