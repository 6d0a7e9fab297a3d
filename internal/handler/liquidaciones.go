package handler

import (
	"net/http"
	"strconv"

	"otfinanzas/internal/apierror"
	"otfinanzas/internal/dto"
	"otfinanzas/internal/middleware"
	"otfinanzas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LiquidacionesHandler struct{ svc service.LiquidacionService }

func NewLiquidacionesHandler(svc service.LiquidacionService) *LiquidacionesHandler {
	return &LiquidacionesHandler{svc: svc}
}

// Calcular godoc
// @Summary      Calcular liquidación de una modelo
// @Description  Computa (o recomputa de forma idempotente) la liquidación de una modelo para un periodo abierto. Si falta la TRM del día la unidad se difiere y se reintenta en background.
// @Tags         liquidaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularLiquidacionRequest true "Modelo y periodo"
// @Success      201  {object} dto.LiquidacionResponse
// @Failure      409  {object} apierror.APIError "Periodo consolidado o conflicto concurrente"
// @Failure      422  {object} apierror.APIError "TRM del día no disponible"
// @Router       /v1/liquidaciones/calcular [post]
func (h *LiquidacionesHandler) Calcular(c *gin.Context) {
	var req dto.CalcularLiquidacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Calcular(c.Request.Context(), claims.Username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Recalcular godoc
// @Summary      Recalcular liquidaciones en lote
// @Description  Recomputa el periodo completo (o las modelos indicadas) con paralelismo acotado. Las fallas por unidad se reportan sin abortar el lote.
// @Tags         liquidaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecalcularRequest true "Periodo y modelos"
// @Success      200  {object} dto.RecalcularResponse
// @Failure      409  {object} apierror.APIError "Periodo consolidado"
// @Router       /v1/liquidaciones/recalcular [post]
func (h *LiquidacionesHandler) Recalcular(c *gin.Context) {
	var req dto.RecalcularRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Recalcular(c.Request.Context(), claims.Username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar liquidaciones
// @Tags         liquidaciones
// @Produce      json
// @Security     BearerAuth
// @Param        mes    query int    false "Mes 1-12"
// @Param        anio   query int    false "Año"
// @Param        estado query string false "CALCULADO | PENDIENTE_REVISION | APROBADO | PAGADO"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.LiquidacionListResponse
// @Router       /v1/liquidaciones [get]
func (h *LiquidacionesHandler) Listar(c *gin.Context) {
	var filter dto.LiquidacionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorModelo godoc
// @Summary      Obtener liquidación de una modelo en un periodo
// @Tags         liquidaciones
// @Produce      json
// @Security     BearerAuth
// @Param        modelo path  string true "ID de la modelo"
// @Param        mes    query int    true "Mes 1-12"
// @Param        anio   query int    true "Año"
// @Success      200 {object} dto.LiquidacionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/liquidaciones/modelo/{modelo} [get]
func (h *LiquidacionesHandler) ObtenerPorModelo(c *gin.Context) {
	modeloID := c.Param("modelo")
	mes, err := strconv.Atoi(c.Query("mes"))
	if err != nil || mes < 1 || mes > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("Mes invalido"))
		return
	}
	anio, err := strconv.Atoi(c.Query("anio"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Anio invalido"))
		return
	}
	resp, err := h.svc.ObtenerPorModeloYPeriodo(c.Request.Context(), modeloID, mes, anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarEstado godoc
// @Summary      Transicionar estado de una liquidación
// @Description  CALCULADO → PENDIENTE_REVISION → APROBADO → PAGADO (se admite el salto CALCULADO → APROBADO). Retrocesos solo con rol admin. Al pasar a PAGADO se asientan los movimientos en el libro.
// @Tags         liquidaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID de la liquidación"
// @Param        body body dto.ActualizarEstadoRequest true "Nuevo estado"
// @Success      200  {object} dto.LiquidacionResponse
// @Failure      409  {object} apierror.APIError "Transición inválida o periodo consolidado"
// @Router       /v1/liquidaciones/{id}/estado [patch]
func (h *LiquidacionesHandler) ActualizarEstado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	esAdmin := claims.Rol == middleware.RolAdmin
	resp, err := h.svc.ActualizarEstado(c.Request.Context(), id, claims.Username, esAdmin, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estadisticas godoc
// @Summary      Estadísticas del periodo
// @Description  Conteo por estado y totales agregados de las liquidaciones del periodo.
// @Tags         liquidaciones
// @Produce      json
// @Security     BearerAuth
// @Param        mes  query int true "Mes 1-12"
// @Param        anio query int true "Año"
// @Success      200 {object} dto.EstadisticasResponse
// @Router       /v1/liquidaciones/estadisticas [get]
func (h *LiquidacionesHandler) Estadisticas(c *gin.Context) {
	mes, err := strconv.Atoi(c.Query("mes"))
	if err != nil || mes < 1 || mes > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("Mes invalido"))
		return
	}
	anio, err := strconv.Atoi(c.Query("anio"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Anio invalido"))
		return
	}
	resp, err := h.svc.Estadisticas(c.Request.Context(), mes, anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
