// Package preview serves a figure pipeline over HTTP, so that a figure can be
// inspected in a browser while its protocol or data are being edited.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sarchlab/trialgrid/figure"
	"github.com/sarchlab/trialgrid/phasegrid"
	"github.com/sarchlab/trialgrid/preview/web"
	"github.com/sarchlab/trialgrid/render"
)

// Server turns a figure pipeline into a web server.
type Server struct {
	pipeline    *figure.Pipeline
	portNumber  int
	openBrowser bool
	logger      *zap.Logger

	lock   sync.Mutex
	server *http.Server
}

// NewServer creates a server for the pipeline.
func NewServer(p *figure.Pipeline) *Server {
	return &Server{
		pipeline: p,
		logger:   zap.NewNop(),
	}
}

// WithPortNumber sets the port to listen on. Ports below 1000 select a random
// free port.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		s.logger.Warn("port number not allowed, using a random port",
			zap.Int("port", portNumber))
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithBrowser sets whether StartServer opens the page in a browser.
func (s *Server) WithBrowser(open bool) *Server {
	s.openBrowser = open
	return s
}

// WithLogger sets the logger.
func (s *Server) WithLogger(l *zap.Logger) *Server {
	s.logger = l
	return s
}

// Handler returns the router serving the page and the API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/figure.png", s.figureImage(render.FormatPNG))
	r.HandleFunc("/figure.svg", s.figureImage(render.FormatSVG))
	r.HandleFunc("/api/layout", s.layout)
	r.HandleFunc("/api/legend", s.legend)
	r.HandleFunc("/api/phase/{index}", s.phaseDetails)
	r.HandleFunc("/api/resource", s.listResources)
	r.HandleFunc("/api/profile", s.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts listening and serving in the background and returns the
// address of the page.
func (s *Server) StartServer() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.server != nil {
		return "", errors.New("preview server already started")
	}

	listener, err := net.Listen("tcp", "localhost:"+strconv.Itoa(s.portNumber))
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("preview server stopped", zap.Error(err))
		}
	}(s.server)

	s.logger.Info("previewing figure", zap.String("url", url))

	if s.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			s.logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	return url, nil
}

// Shutdown stops the server started by StartServer.
func (s *Server) Shutdown(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.server == nil {
		return nil
	}

	err := s.server.Shutdown(ctx)
	s.server = nil

	return err
}

func (s *Server) figureImage(format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := imageOptions(r)
		if err != nil {
			s.fail(w, http.StatusBadRequest, err)
			return
		}
		opts.Format = format

		var buf bytes.Buffer
		if _, err := s.pipeline.Render(&buf, opts); err != nil {
			s.fail(w, statusOf(err), err)
			return
		}

		contentType := "image/png"
		if format == render.FormatSVG {
			contentType = "image/svg+xml"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		s.write(w, buf.Bytes())
	}
}

// imageOptions reads the dpi, width and height query parameters. The preview
// defaults to 100 DPI.
func imageOptions(r *http.Request) (figure.Options, error) {
	opts := figure.Options{DPI: 100}

	params := []struct {
		name string
		dst  *float64
	}{
		{"dpi", &opts.DPI},
		{"width", &opts.WidthIn},
		{"height", &opts.HeightIn},
	}

	for _, p := range params {
		str := r.URL.Query().Get(p.name)
		if str == "" {
			continue
		}

		v, err := strconv.ParseFloat(str, 64)
		if err != nil || !(v > 0) || v > 1200 {
			return opts, fmt.Errorf("invalid %s %q", p.name, str)
		}

		*p.dst = v
	}

	return opts, nil
}

type phaseRsp struct {
	Index   int         `json:"index"`
	Label   string      `json:"label"`
	Start   int         `json:"start"`
	End     int         `json:"end"`
	Columns int         `json:"columns"`
	XOffset float64     `json:"x_offset"`
	LabelX  float64     `json:"label_x"`
	Counts  map[int]int `json:"counts"`
}

type layoutRsp struct {
	Title  string     `json:"title"`
	Rows   int        `json:"rows"`
	Width  float64    `json:"width"`
	Trials int        `json:"trials"`
	Phases []phaseRsp `json:"phases"`
}

func (s *Server) layout(w http.ResponseWriter, _ *http.Request) {
	grid, err := s.pipeline.Compute()
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}

	rsp := layoutRsp{
		Title:  s.pipeline.Protocol().Title,
		Rows:   grid.Rows,
		Width:  grid.Width,
		Trials: grid.CellCount(),
	}

	summaries := phasegrid.Summarize(grid)
	for i, p := range grid.Phases {
		rsp.Phases = append(rsp.Phases, phaseRsp{
			Index:   p.Index,
			Label:   p.Label,
			Start:   p.Start,
			End:     p.End,
			Columns: p.Columns,
			XOffset: p.XOffset,
			LabelX:  p.LabelX,
			Counts:  summaries[i].Counts,
		})
	}

	s.writeJSON(w, rsp)
}

type categoryRsp struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) legend(w http.ResponseWriter, _ *http.Request) {
	rsp := []categoryRsp{}
	for _, c := range s.pipeline.Legend() {
		rsp = append(rsp, categoryRsp{
			Code:  c.Code,
			Name:  c.Name,
			Color: phasegrid.HexColor(c.Color),
		})
	}

	s.writeJSON(w, rsp)
}

func (s *Server) phaseDetails(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid phase index"))
		return
	}

	grid, err := s.pipeline.Compute()
	if err != nil {
		s.fail(w, statusOf(err), err)
		return
	}

	if index < 0 || index >= len(grid.Phases) {
		s.fail(w, http.StatusNotFound, fmt.Errorf("phase %d not found", index))
		return
	}

	phase := grid.Phases[index]

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&phase)
	serializer.SetMaxDepth(1)

	var buf bytes.Buffer
	if err := serializer.Serialize(&buf); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.write(w, buf.Bytes())
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

// collectProfile samples the CPU for the number of milliseconds given by the
// ms query parameter, one second by default.
func (s *Server) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second

	if ms := r.URL.Query().Get("ms"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil || v <= 0 || v > 30000 {
			s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid ms %q", ms))
			return
		}

		duration = time.Duration(v) * time.Millisecond
	}

	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		s.fail(w, http.StatusConflict, err)
		return
	}

	select {
	case <-time.After(duration):
	case <-r.Context().Done():
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, prof)
}

func statusOf(err error) int {
	if errors.Is(err, render.ErrInvalidFigure) {
		return http.StatusBadRequest
	}

	if errors.Is(err, phasegrid.ErrInvalidInput) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Debug("preview request failed",
		zap.Int("status", status), zap.Error(err))

	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.write(w, data)
}

func (s *Server) write(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("cannot write response", zap.Error(err))
	}
}
