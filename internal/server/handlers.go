package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	"github.com/KaramelBytes/surveytab/internal/config"
	"github.com/KaramelBytes/surveytab/internal/logging"
	"github.com/KaramelBytes/surveytab/internal/parser"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename  = "tabla_contingencia.xlsx"
)

var (
	errUploadTooLarge = errors.New("upload exceeds size limit")
	errMissingFile    = errors.New("multipart field 'file' is required")
	errInvalidForm    = errors.New("invalid request")
	errInvalidFile    = errors.New("could not read spreadsheet")
	errExportColumns  = errors.New("export needs exactly two columns")
)

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: h.cfg.Version})
}

// HandleColumns handles POST /v1/columns. The optional "search" field filters
// column names by case-insensitive substring.
func (h *Handlers) HandleColumns(c *gin.Context) {
	logger := requestLog(c, h.logger).With(zap.String("handler", "HandleColumns"))
	form, tbl, err := h.bindUpload(c, logger)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, ColumnsResponse{
		Table:   tbl.Name,
		Columns: analysis.FilterColumns(tbl, form.Search),
		Rows:    tbl.Len(),
	})
}

// HandleAnalyze handles POST /v1/analyze. One column yields a frequency table,
// two yield a contingency table; both carry chart data.
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	logger := requestLog(c, h.logger).With(zap.String("handler", "HandleAnalyze"))
	form, tbl, err := h.bindUpload(c, logger)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	req, err := h.analysisRequest(c, form)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	res, err := analysis.Analyze(tbl, req)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("analysis complete",
		zap.Strings(logging.FieldColumns, req.Columns),
		zap.String("kind", string(res.Kind)),
		zap.Int("warnings", len(res.Warnings)))
	c.JSON(http.StatusOK, res)
}

// HandleExport handles POST /v1/export and streams the contingency table of
// exactly two columns as an .xlsx attachment.
func (h *Handlers) HandleExport(c *gin.Context) {
	logger := requestLog(c, h.logger).With(zap.String("handler", "HandleExport"))
	form, tbl, err := h.bindUpload(c, logger)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	if len(form.Columns) != 2 {
		h.fail(c, logger, fmt.Errorf("%w: got %d", errExportColumns, len(form.Columns)))
		return
	}
	req, err := h.analysisRequest(c, form)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	ct, err := analysis.CrossTab(tbl, req.Columns[0], req.Columns[1], req.Options)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	if req.Transpose {
		ct = ct.Transpose()
	}
	var buf bytes.Buffer
	if err := analysis.ExportContingencyXLSX(&buf, ct); err != nil {
		h.fail(c, logger, err)
		return
	}
	logger.Info("export written", zap.Strings(logging.FieldColumns, req.Columns), zap.Int("bytes", buf.Len()))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// bindUpload enforces the size limit, binds the form and loads the sanitized table.
func (h *Handlers) bindUpload(c *gin.Context, logger *zap.Logger) (*uploadForm, *analysis.Table, error) {
	limit := int64(h.cfg.MaxUploadMB) << 20
	if c.Request.ContentLength > limit {
		return nil, nil, fmt.Errorf("%w: %d MB", errUploadTooLarge, h.cfg.MaxUploadMB)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, formError(err, h.cfg.MaxUploadMB)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, errMissingFile
		}
		return nil, nil, formError(err, h.cfg.MaxUploadMB)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errInvalidFile, err)
	}
	defer f.Close()

	opt := parser.LoadOptions{SheetName: form.SheetName, SheetIndex: form.SheetIndex}
	if opt.SheetName == "" && opt.SheetIndex == 0 {
		opt.SheetIndex = h.cfg.SheetIndex
	}
	raw, err := parser.LoadReader(fh.Filename, f, fh.Size, opt)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupported) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errInvalidFile, err)
	}
	tbl := analysis.Sanitize(raw)
	logger.Info("table loaded",
		zap.String(logging.FieldFile, fh.Filename),
		zap.Int(logging.FieldRows, tbl.Len()),
		zap.Int("dropped_rows", raw.Len()-tbl.Len()),
		zap.Int("column_count", len(tbl.Columns)))
	return &form, tbl, nil
}

func formError(err error, limitMB int) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: %d MB", errUploadTooLarge, limitMB)
	}
	return fmt.Errorf("%w: %v", errInvalidForm, err)
}

func (h *Handlers) analysisRequest(c *gin.Context, form *uploadForm) (analysis.AnalysisRequest, error) {
	req := analysis.AnalysisRequest{
		ID:        getOrCreateRequestID(c),
		Columns:   form.Columns,
		Order:     h.cfg.Order,
		Transpose: h.cfg.Transpose,
		Options:   h.cfg.Options,
	}
	chart, err := analysis.ParseChartKind(form.Chart)
	if err != nil {
		return req, err
	}
	req.Chart = chart
	if form.Order != "" {
		order, err := analysis.ParseFrequencyOrder(form.Order)
		if err != nil {
			return req, fmt.Errorf("%w: %v", errInvalidForm, err)
		}
		req.Order = order
	}
	if form.Transpose != nil {
		req.Transpose = *form.Transpose
	}
	if form.Separator != "" {
		sep, err := config.ParseSeparator(form.Separator)
		if err != nil {
			return req, fmt.Errorf("%w: %v", errInvalidForm, err)
		}
		req.Options.Separator = sep
	}
	return req, nil
}

// fail maps err to a status and error code and writes the JSON body.
func (h *Handlers) fail(c *gin.Context, logger *zap.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"
	case errors.Is(err, errMissingFile):
		return http.StatusBadRequest, "MISSING_FILE"
	case errors.Is(err, errInvalidForm):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, analysis.ErrNoColumns):
		return http.StatusBadRequest, "NO_COLUMNS"
	case errors.Is(err, parser.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, errInvalidFile):
		return http.StatusUnprocessableEntity, "INVALID_FILE"
	case errors.Is(err, analysis.ErrEmptyTable):
		return http.StatusUnprocessableEntity, "EMPTY_TABLE"
	case errors.Is(err, analysis.ErrTooManyColumns):
		return http.StatusUnprocessableEntity, "TOO_MANY_COLUMNS"
	case errors.Is(err, errExportColumns):
		return http.StatusUnprocessableEntity, "EXPORT_NEEDS_TWO_COLUMNS"
	case errors.Is(err, analysis.ErrUnknownColumn):
		return http.StatusUnprocessableEntity, "UNKNOWN_COLUMN"
	case errors.Is(err, analysis.ErrUnsupportedChart):
		return http.StatusUnprocessableEntity, "UNSUPPORTED_CHART"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
