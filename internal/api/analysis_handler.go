package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"abverdict/adapters/excel"
	"abverdict/adapters/report"
	"abverdict/app"
	"abverdict/domain/core"
	"abverdict/domain/dataset"
	"abverdict/domain/verdict"
	"abverdict/internal/errors"
	"abverdict/internal/metrics"

	"github.com/gin-gonic/gin"
)

var uploadExtensions = []string{".csv", ".xlsx"}

// analysisBody is the JSON form of an analysis request with the data inline
type analysisBody struct {
	Columns dataset.ColumnSelection  `json:"columns"`
	Rows    []map[string]interface{} `json:"rows" binding:"required,min=1"`
	app.AnalysisParams
}

// handleAnalyze accepts either a multipart upload (file plus form fields) or a JSON
// body with inline rows, and answers with the report. ?format= selects the encoding.
func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatJSON)))
	if err != nil {
		s.fail(c, start, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	req, err := s.bindRequest(ctx, c)
	if err != nil {
		s.fail(c, start, err)
		return
	}

	rep, err := s.service.Analyze(ctx, req)
	if err != nil {
		s.fail(c, start, err)
		return
	}

	skipped := 0
	if rep.Bootstrap != nil {
		skipped = rep.Bootstrap.Skipped
	}
	metrics.RecordAnalysis(metrics.Analysis{
		Status:    metrics.StatusOK,
		Retention: string(rep.Verdict.Retention),
		Cached:    rep.Cached,
		Seconds:   time.Since(start).Seconds(),
		Rows:      rep.RawSize,
		Skipped:   skipped,
	})

	s.respond(c, rep, format)
}

// handleColumns profiles the columns of an uploaded file so callers can pick them
func (s *Server) handleColumns(c *gin.Context) {
	table, err := s.readUpload(c.Request.Context(), c)
	if err != nil {
		c.JSON(statusFor(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":    len(table.Rows),
		"columns": dataset.ProfileColumns(table),
	})
}

func (s *Server) respond(c *gin.Context, rep *verdict.Report, format report.Format) {
	opts := report.DefaultOptions()
	if format == report.FormatJSON || format == report.FormatYAML {
		opts.IncludeDistribution = c.Query("distribution") == "true"
		opts.HistogramBins = 0
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", format.ContentType())
	if err := report.Render(c.Writer, rep, format, opts); err != nil {
		s.logger.Error("failed to render report %s as %s: %v", rep.RunID, format, err)
	}
}

func (s *Server) bindRequest(ctx context.Context, c *gin.Context) (app.AnalysisRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return s.bindMultipart(ctx, c)
	}

	var body analysisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return app.AnalysisRequest{}, errors.Validation("invalid request body", err)
	}
	return app.AnalysisRequest{
		Table:          dataset.TableFromRecords(body.Rows),
		Columns:        body.Columns,
		AnalysisParams: body.AnalysisParams,
	}, nil
}

func (s *Server) bindMultipart(ctx context.Context, c *gin.Context) (app.AnalysisRequest, error) {
	table, err := s.readUpload(ctx, c)
	if err != nil {
		return app.AnalysisRequest{}, err
	}

	req := app.AnalysisRequest{
		Table: table,
		Columns: dataset.ColumnSelection{
			Group:      c.PostForm("group"),
			Retention:  c.PostForm("metric"),
			Engagement: c.PostForm("continuous"),
		},
	}

	form := formParser{c: c}
	req.Threshold = form.optionalFloat("threshold")
	req.Percentile = form.float("percentile")
	req.Iterations = form.int("iterations")
	req.Seed = form.optionalInt64("seed")
	req.Workers = form.int("workers")
	if form.err != nil {
		return app.AnalysisRequest{}, form.err
	}
	return req, nil
}

func (s *Server) readUpload(ctx context.Context, c *gin.Context) (*dataset.Table, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.ValidationError(fmt.Sprintf("upload exceeds the %d MB limit", s.cfg.MaxUploadBytes>>20))
		}
		return nil, errors.Validation("no file uploaded", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	valid := false
	for _, allowed := range uploadExtensions {
		if ext == allowed {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.ValidationError("only Excel (.xlsx) and CSV (.csv) files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open upload")
	}
	defer f.Close()

	var opts []excel.Option
	if sheet := c.PostForm("sheet"); sheet != "" {
		opts = append(opts, excel.WithSheet(sheet))
	}
	opts = append(opts, excel.WithLogger(s.logger))
	return excel.NewStreamReader(f, fh.Filename, opts...).ReadTable(ctx)
}

// formParser reads optional numeric form fields, keeping the first error
type formParser struct {
	c   *gin.Context
	err error
}

func (p *formParser) value(name string) (string, bool) {
	v := strings.TrimSpace(p.c.PostForm(name))
	return v, v != "" && p.err == nil
}

func (p *formParser) fail(name, v string) {
	p.err = errors.Validation("invalid form field",
		fmt.Errorf("%w: %s=%q", core.ErrInvalidParameter, name, v))
}

func (p *formParser) float(name string) float64 {
	v, ok := p.value(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, v)
	}
	return f
}

func (p *formParser) optionalFloat(name string) *float64 {
	if _, ok := p.value(name); !ok {
		return nil
	}
	f := p.float(name)
	return &f
}

func (p *formParser) int(name string) int {
	v, ok := p.value(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v)
	}
	return i
}

func (p *formParser) optionalInt64(name string) *int64 {
	v, ok := p.value(name)
	if !ok {
		return nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(name, v)
		return nil
	}
	return &i
}
