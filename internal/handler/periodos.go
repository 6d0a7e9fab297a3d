package handler

import (
	"net/http"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/middleware"
	"otfinanzas/internal/service"

	"github.com/gin-gonic/gin"
)

type PeriodosHandler struct{ svc service.PeriodoService }

func NewPeriodosHandler(svc service.PeriodoService) *PeriodosHandler {
	return &PeriodosHandler{svc: svc}
}

// Consolidar godoc
// @Summary      Consolidar periodo
// @Description  Congela la foto de totales del mes. Desde ese momento liquidaciones y movimientos del periodo rechazan escrituras ordinarias.
// @Tags         periodos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ConsolidarPeriodoRequest true "Periodo a consolidar"
// @Success      200  {object} dto.PeriodoResponse
// @Failure      409  {object} apierror.APIError "Ya consolidado"
// @Router       /v1/periodos/consolidar [post]
func (h *PeriodosHandler) Consolidar(c *gin.Context) {
	var req dto.ConsolidarPeriodoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Consolidar(c.Request.Context(), claims.Username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarEnRevision godoc
// @Summary      Marcar periodo en revisión
// @Description  ABIERTO → EN_REVISION; el periodo sigue aceptando escrituras.
// @Tags         periodos
// @Produce      json
// @Security     BearerAuth
// @Param        mes  query int true "Mes 1-12"
// @Param        anio query int true "Año"
// @Success      200 {object} dto.PeriodoResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/periodos/revision [post]
func (h *PeriodosHandler) MarcarEnRevision(c *gin.Context) {
	mes, anio, ok := periodoQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.MarcarEnRevision(c.Request.Context(), mes, anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary      Cerrar periodo
// @Description  CONSOLIDADO → CERRADO. El cierre es definitivo.
// @Tags         periodos
// @Produce      json
// @Security     BearerAuth
// @Param        mes  query int true "Mes 1-12"
// @Param        anio query int true "Año"
// @Success      200 {object} dto.PeriodoResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/periodos/cerrar [post]
func (h *PeriodosHandler) Cerrar(c *gin.Context) {
	mes, anio, ok := periodoQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), mes, anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar periodos consolidados
// @Tags         periodos
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.PeriodoResponse
// @Router       /v1/periodos [get]
func (h *PeriodosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListarConsolidados(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
