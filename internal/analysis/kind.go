package analysis

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// Kind es uno de los tres análisis. El conjunto es cerrado.
type Kind int

const (
	KindLifecycle Kind = iota + 1
	KindSeasonality
	KindDemand
)

// Kinds lista todos los análisis en el orden del menú.
func Kinds() []Kind {
	return []Kind{KindLifecycle, KindSeasonality, KindDemand}
}

func (k Kind) String() string {
	switch k {
	case KindLifecycle:
		return "product_lifecycle"
	case KindSeasonality:
		return "product_seasonality"
	case KindDemand:
		return "product_demand"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Label es el nombre corto usado en los mensajes al usuario ("lifecycle", ...).
func (k Kind) Label() string {
	return strings.TrimPrefix(k.String(), "product_")
}

// Description es el resumen de una línea que muestran los listados de tools.
func (k Kind) Description() string {
	switch k {
	case KindLifecycle:
		return "Analyze product lifecycle stage"
	case KindSeasonality:
		return "Analyze product seasonality patterns"
	case KindDemand:
		return "Analyze product demand patterns"
	default:
		return ""
	}
}

// NeedsDateRange es true para los análisis que reciben fecha de inicio y fin.
func (k Kind) NeedsDateRange() bool {
	return k == KindDemand
}

// ParseKind acepta el nombre completo ("product_demand") o el label ("demand").
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if v == k.String() || v == k.Label() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("analysis.ParseKind: unknown analysis %q", s)
}

// KindForRequest mapea un tipo de request enrutada a su análisis.
func KindForRequest(t domain.RequestType) (Kind, bool) {
	switch t {
	case domain.RequestLifecycle:
		return KindLifecycle, true
	case domain.RequestSeasonality:
		return KindSeasonality, true
	case domain.RequestDemand:
		return KindDemand, true
	default:
		return 0, false
	}
}
