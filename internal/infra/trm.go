package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ErrSinTasa indica que el servicio de TRM no tiene tasa publicada para la
// fecha solicitada. Sin fallback a fecha anterior: el caller decide diferir.
var ErrSinTasa = errors.New("trm: sin tasa para la fecha")

const trmCacheTTL = 24 * time.Hour

// trmResponse es la respuesta del servicio de TRM (COP por USD).
type trmResponse struct {
	Fecha     string          `json:"fecha"`
	CopPorUSD decimal.Decimal `json:"cop_por_usd"`
}

// TRMClient consulta la tasa representativa del mercado (COP/USD) a la fecha.
// Las tasas son inmutables por fecha, así que se cachean un día en Redis.
type TRMClient struct {
	baseURL    string
	httpClient *http.Client
	rdb        *redis.Client
}

func NewTRMClient(baseURL string, rdb *redis.Client) *TRMClient {
	return &TRMClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rdb:        rdb,
	}
}

// RatePorFecha devuelve la TRM vigente exactamente para esa fecha, o
// ErrSinTasa cuando el servicio no tiene tasa publicada.
func (c *TRMClient) RatePorFecha(ctx context.Context, fecha time.Time) (decimal.Decimal, error) {
	dia := fecha.Format("2006-01-02")
	cacheKey := "trm:" + dia

	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			if tasa, derr := decimal.NewFromString(cached); derr == nil {
				return tasa, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/trm?fecha="+dia, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("trm: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("trm: servicio inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrSinTasa, dia)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("trm: servicio devolvió %d", resp.StatusCode)
	}

	var body trmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("trm: decode response: %w", err)
	}
	if !body.CopPorUSD.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: tasa no positiva para %s", ErrSinTasa, dia)
	}

	if c.rdb != nil {
		_ = c.rdb.Set(ctx, cacheKey, body.CopPorUSD.String(), trmCacheTTL).Err()
	}
	return body.CopPorUSD, nil
}
