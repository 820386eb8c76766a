package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SalesRecord es un período observado de ventas de un producto.
type SalesRecord struct {
	Date    string  `json:"date"`    // fecha o fecha-hora ISO 8601
	Sales   int     `json:"sales"`   // unidades vendidas, >= 0
	Price   float64 `json:"price"`   // precio unitario, > 0
	Returns int     `json:"returns"` // unidades devueltas, >= 0 (puede superar Sales en los datos de origen)
}

// SalesHistory es la colección no ordenada de registros de un producto.
// Un SalesHistory nil significa que el producto no tiene historial; uno vacío
// pero no nil significa que existe pero no tiene registros.
type SalesHistory []SalesRecord

// Product es el registro que sirve el product store.
type Product struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Price      float64        `json:"price"`
	Attributes map[string]any `json:"attributes,omitempty"`
	History    SalesHistory   `json:"history"`
}

// Observation es un SalesRecord con la fecha ya parseada.
type Observation struct {
	Index  int // posición en el historial original
	At     time.Time
	Record SalesRecord
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// ParseDate parsea una fecha o fecha-hora ISO 8601. Los campos de reloj se
// conservan y se marcan como UTC; cualquier offset del input se ignora.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, NewValidationError("date", s, "expected ISO 8601 date or date-time")
}

// Observations parsea la fecha de cada registro. La primera fecha mal formada
// invalida todo el historial.
func (h SalesHistory) Observations() ([]Observation, error) {
	obs := make([]Observation, 0, len(h))
	for i, r := range h {
		at, err := ParseDate(r.Date)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("history[%d].date", i), r.Date,
				"expected ISO 8601 date or date-time")
		}
		obs = append(obs, Observation{Index: i, At: at, Record: r})
	}
	return obs, nil
}

// SortedObservations es Observations ordenado por fecha; los empates mantienen el orden original.
func (h SalesHistory) SortedObservations() ([]Observation, error) {
	obs, err := h.Observations()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].At.Before(obs[j].At)
	})
	return obs, nil
}

// Validate comprueba los invariantes del registro (sales >= 0, price > 0, returns >= 0)
// y la sintaxis de fechas. Los analizadores no lo necesitan; protege el seeding.
func (h SalesHistory) Validate() error {
	for i, r := range h {
		field := fmt.Sprintf("history[%d]", i)
		if _, err := ParseDate(r.Date); err != nil {
			return NewValidationError(field+".date", r.Date, "expected ISO 8601 date or date-time")
		}
		if r.Sales < 0 {
			return NewValidationError(field+".sales", fmt.Sprint(r.Sales), "must be >= 0")
		}
		if r.Price <= 0 {
			return NewValidationError(field+".price", fmt.Sprint(r.Price), "must be > 0")
		}
		if r.Returns < 0 {
			return NewValidationError(field+".returns", fmt.Sprint(r.Returns), "must be >= 0")
		}
	}
	return nil
}

// TimeRange es un intervalo cerrado [From, To].
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains indica si From <= t <= To.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
