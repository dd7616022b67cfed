package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

// TablesHandler serves the live projections kept by the table mirrors.
type TablesHandler struct {
	mirrors map[string]*usecase.TableMirror
}

// NewTablesHandler builds a handler over the opened mirrors, keyed by table
// name.
func NewTablesHandler(mirrors map[string]*usecase.TableMirror) *TablesHandler {
	return &TablesHandler{mirrors: mirrors}
}

// RegisterRoutes binds table projection endpoints.
func (h *TablesHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/tables/:table", h.Rows)
}

// Rows godoc
// @Summary Current projection of a mirrored table
// @Description Returns the locally mirrored rows of a table, newest insert first.
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Success 200 {object} TableResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tables/{table} [get]
func (h *TablesHandler) Rows(c *gin.Context) {
	table := c.Param("table")

	mirror, ok := h.mirrors[table]
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "unknown table"))
		return
	}

	rows := mirror.Rows()
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = map[string]any(row)
	}

	c.JSON(http.StatusOK, TableResponse{
		Table: table,
		Count: len(out),
		Rows:  out,
	})
}
