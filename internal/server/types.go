package server

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ColumnsResponse lists the analyzable questions of an uploaded sheet.
type ColumnsResponse struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// uploadForm holds the multipart fields shared by every upload endpoint.
type uploadForm struct {
	Columns    []string `form:"columns"`
	Search     string   `form:"search"`
	Chart      string   `form:"chart"`
	Order      string   `form:"order" binding:"omitempty,oneof=count appearance alpha"`
	Transpose  *bool    `form:"transpose"`
	SheetName  string   `form:"sheet_name"`
	SheetIndex int      `form:"sheet_index" binding:"gte=0"`
	Separator  string   `form:"separator"`
}
