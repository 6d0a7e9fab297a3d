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

type MovimientosHandler struct{ svc service.MovimientoService }

func NewMovimientosHandler(svc service.MovimientoService) *MovimientosHandler {
	return &MovimientosHandler{svc: svc}
}

// Registrar godoc
// @Summary      Registrar movimiento manual
// @Description  Agrega un INGRESO o EGRESO al libro. Rechaza periodos ya consolidados.
// @Tags         movimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarMovimientoRequest true "Movimiento"
// @Success      201  {object} dto.MovimientoResponse
// @Failure      409  {object} apierror.APIError "Periodo consolidado"
// @Router       /v1/movimientos [post]
func (h *MovimientosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Registrar(c.Request.Context(), claims.Username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Revertir godoc
// @Summary      Revertir movimiento
// @Description  Crea el movimiento compensatorio de tipo opuesto y marca el original REVERTIDO. La historia nunca se borra.
// @Tags         movimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID del movimiento"
// @Param        body body dto.RevertirMovimientoRequest true "Motivo de la reversa"
// @Success      200  {object} dto.RevertirResponse
// @Failure      409  {object} apierror.APIError "Ya revertido"
// @Router       /v1/movimientos/{id}/revertir [post]
func (h *MovimientosHandler) Revertir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RevertirMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Revertir(c.Request.Context(), id, claims.Username, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar movimientos
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        mes    query int    false "Mes 1-12"
// @Param        anio   query int    false "Año"
// @Param        tipo   query string false "INGRESO | EGRESO"
// @Param        origen query string false "Origen"
// @Param        estado query string false "ACTIVO | REVERTIDO"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/movimientos [get]
func (h *MovimientosHandler) Listar(c *gin.Context) {
	var filter dto.MovimientoFilter
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

// Detalle godoc
// @Summary      Detalle de un movimiento
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del movimiento"
// @Success      200 {object} dto.MovimientoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/movimientos/{id} [get]
func (h *MovimientosHandler) Detalle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Detalle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Saldo godoc
// @Summary      Saldo de dinero en movimiento
// @Description  Suma con signo de todos los movimientos no revertidos. Siempre se computa desde el libro.
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SaldoResponse
// @Router       /v1/movimientos/saldo [get]
func (h *MovimientosHandler) Saldo(c *gin.Context) {
	resp, err := h.svc.SaldoMovimiento(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenPeriodo godoc
// @Summary      Resumen de movimientos de un periodo
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        mes  query int true "Mes 1-12"
// @Param        anio query int true "Año"
// @Success      200 {object} dto.ResumenPeriodoResponse
// @Router       /v1/movimientos/resumen [get]
func (h *MovimientosHandler) ResumenPeriodo(c *gin.Context) {
	mes, anio, ok := periodoQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResumenPeriodo(c.Request.Context(), mes, anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FlujoCaja godoc
// @Summary      Flujo de caja anual
// @Description  Serie de 12 meses con ingresos, egresos y neto; los meses sin movimientos van en cero.
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        anio query int true "Año"
// @Success      200 {object} dto.FlujoCajaResponse
// @Router       /v1/movimientos/flujo [get]
func (h *MovimientosHandler) FlujoCaja(c *gin.Context) {
	anio, err := strconv.Atoi(c.Query("anio"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Anio invalido"))
		return
	}
	resp, err := h.svc.FlujoCaja(c.Request.Context(), anio)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comparativa godoc
// @Summary      Comparativa entre dos periodos
// @Tags         movimientos
// @Produce      json
// @Security     BearerAuth
// @Param        mes_a  query int true "Mes del periodo A"
// @Param        anio_a query int true "Año del periodo A"
// @Param        mes_b  query int true "Mes del periodo B"
// @Param        anio_b query int true "Año del periodo B"
// @Success      200 {object} dto.ComparativaResponse
// @Router       /v1/movimientos/comparativa [get]
func (h *MovimientosHandler) Comparativa(c *gin.Context) {
	mesA, err := strconv.Atoi(c.Query("mes_a"))
	if err != nil || mesA < 1 || mesA > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("mes_a invalido"))
		return
	}
	anioA, err := strconv.Atoi(c.Query("anio_a"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("anio_a invalido"))
		return
	}
	mesB, err := strconv.Atoi(c.Query("mes_b"))
	if err != nil || mesB < 1 || mesB > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("mes_b invalido"))
		return
	}
	anioB, err := strconv.Atoi(c.Query("anio_b"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("anio_b invalido"))
		return
	}
	resp, err := h.svc.Comparativa(c.Request.Context(), mesA, anioA, mesB, anioB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// periodoQuery parses the mes/anio query pair shared by several endpoints.
func periodoQuery(c *gin.Context) (mes, anio int, ok bool) {
	mes, err := strconv.Atoi(c.Query("mes"))
	if err != nil || mes < 1 || mes > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("Mes invalido"))
		return 0, 0, false
	}
	anio, err = strconv.Atoi(c.Query("anio"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Anio invalido"))
		return 0, 0, false
	}
	return mes, anio, true
}
