package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/blockglyph/pkg/buildinfo"
	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/imageio"
	"github.com/matzehuels/blockglyph/pkg/pipeline"
	"github.com/matzehuels/blockglyph/pkg/render/sink"
	"github.com/matzehuels/blockglyph/pkg/symbols"
)

// Response headers set by the render endpoint.
const (
	HeaderCache      = "X-Cache"
	HeaderGridSize   = "X-Grid-Size"
	HeaderResultHash = "X-Result-Hash"
)

// formField is the multipart field holding the uploaded image.
const formField = "image"

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

// TableInfo describes a built-in symbol table.
type TableInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Symbols     string `json:"symbols"`
	Default     bool   `json:"default,omitempty"`
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	names := symbols.Names()
	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		table, err := symbols.Lookup(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		tables = append(tables, TableInfo{
			Name:        name,
			Description: symbols.Describe(name),
			Symbols:     string(table),
			Default:     name == symbols.Default,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, r, errs.New(errs.ErrCodeNotFound, "stats are disabled"))
		return
	}
	writeJSON(w, http.StatusOK, s.recorder.Snapshot())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format := opts.Formats[0]

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	data, err := readImage(r, s.maxBodyBytes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	buf, _, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), buf, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.CacheInfo.TransformHit && result.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", contentType(opts.Mode, format))
	h.Set(HeaderCache, cacheStatus)
	h.Set(HeaderGridSize, strconv.Itoa(result.Stats.Cols)+"x"+strconv.Itoa(result.Stats.Rows))
	h.Set(HeaderResultHash, result.ResultHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// parseOptions overlays query parameters onto the server defaults and
// validates the result.
func (s *Server) parseOptions(q url.Values) (pipeline.Options, error) {
	d := s.defaults
	opts := pipeline.Options{
		Mode:       d.Mode,
		BlockSize:  d.BlockSize,
		Table:      d.Table,
		MaxWidth:   d.MaxWidth,
		GlyphSize:  d.GlyphSize,
		Glow:       d.Glow,
		Background: d.Background,
		Font:       d.Font,
		Logger:     d.Logger,
	}

	if v := q.Get("mode"); v != "" {
		opts.Mode = v
	}
	if v := q.Get("table"); v != "" {
		// Only built-in tables; never read files named by a request.
		if err := errs.ValidateTableName(v); err != nil {
			return opts, err
		}
		opts.Table = v
	}
	if v := q.Get("background"); v != "" {
		opts.Background = v
	}

	// A size given explicitly is validated here; zero in Options means unset
	// and would otherwise fall back to the default.
	ints := []struct {
		name     string
		dst      *int
		validate func(int) error
	}{
		{"block_size", &opts.BlockSize, errs.ValidateBlockSize},
		{"glyph_size", &opts.GlyphSize, errs.ValidateGlyphSize},
		{"max_width", &opts.MaxWidth, nil},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidArgument, "%s must be an integer, got %q", p.name, v)
		}
		if p.validate != nil {
			if err := p.validate(n); err != nil {
				return opts, err
			}
		}
		*p.dst = n
	}

	if v := q.Get("glow"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidArgument, "glow must be a boolean, got %q", v)
		}
		opts.Glow = b
	}

	if opts.Mode == "" {
		opts.Mode = pipeline.DefaultMode
	}
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = defaultFormat(opts.Mode)
	}
	if opts.Mode == pipeline.ModeFlatten {
		format = imageio.NormalizeFormat(format)
	}
	opts.Formats = []string{format}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

func defaultFormat(mode string) string {
	if mode == pipeline.ModeFlatten {
		return imageio.FormatPNG
	}
	return sink.FormatSVG
}

func contentType(mode, format string) string {
	if mode == pipeline.ModeFlatten {
		return imageio.ContentType(format)
	}
	return sink.ContentType(format)
}

// readImage returns the uploaded image bytes from a raw or multipart body.
func readImage(r *http.Request, maxBytes int64) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidArgument, err, "read body")
		}
		if len(data) == 0 {
			return nil, errs.New(errs.ErrCodeInvalidArgument, "empty request body")
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidArgument, err, "parse multipart form")
	}
	f, _, err := r.FormFile(formField)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidArgument, err, "missing %q form field", formField)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidArgument, err, "read %q form field", formField)
	}
	return data, nil
}
