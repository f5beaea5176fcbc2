package fileserver

import (
	"context"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/glekoz/bwfilter/application"
	"github.com/glekoz/bwfilter/internal/models"
	"go.uber.org/zap"
)

type AppAPI interface {
	State() application.State
	Download() (application.Download, error)
	Reset()
}

// FileServer is the preview page. It renders the in-process state and never
// accepts image data.
type FileServer struct {
	App  AppAPI
	addr string // только loopback, проверяется в config
	log  *zap.Logger
}

func NewFileServer(app AppAPI, addr string, log *zap.Logger) *FileServer {
	return &FileServer{App: app, addr: addr, log: log}
}

func (s *FileServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()
	s.log.Info("preview listening", zap.String("addr", "http://"+s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *FileServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /download", s.download)
	mux.HandleFunc("POST /reset", s.reset)
	return mux
}

type view struct {
	State       string
	Image       template.URL
	Placeholder bool
	Message     string
	Busy        bool
	CanDownload bool
	CanReset    bool
}

func newView(st application.State) view {
	img, placeholder := application.Display(st)
	v := view{
		State:       st.String(),
		Image:       template.URL(img), // data: URL собран нами же
		Placeholder: placeholder,
	}
	switch st := st.(type) {
	case application.Loading, application.Processing:
		v.Busy = true
		v.CanReset = true
	case application.Ready:
		v.CanDownload = true
		v.CanReset = true
	case application.Failed:
		v.Message = st.Message
		_, v.CanReset = st.Previous.(application.Ready)
	}
	return v
}

func (s *FileServer) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := page.Execute(w, newView(s.App.State())); err != nil {
		s.log.Error("render preview", zap.Error(err))
	}
}

func (s *FileServer) download(w http.ResponseWriter, r *http.Request) {
	d, err := s.App.Download()
	if err != nil {
		if errors.Is(err, models.ErrNothingToDownload) {
			http.Error(w, "nothing to download", http.StatusNotFound)
			return
		}
		s.log.Error("download", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	if _, err := w.Write(d.Data); err != nil {
		s.log.Warn("download write", zap.Error(err))
	}
}

func (s *FileServer) reset(w http.ResponseWriter, r *http.Request) {
	s.App.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>bw</title>
{{if .Busy}}<meta http-equiv="refresh" content="1">{{end}}
</head>
<body data-state="{{.State}}">
{{with .Message}}<p class="error">{{.}}</p>{{end}}
{{if .Image}}<img src="{{.Image}}" alt="preview"{{if .Placeholder}} style="opacity:.5"{{end}}>{{end}}
{{if .CanDownload}}<a href="/download">download</a>{{end}}
{{if .CanReset}}<form method="post" action="/reset"><button>reset</button></form>{{end}}
</body>
</html>
`))
