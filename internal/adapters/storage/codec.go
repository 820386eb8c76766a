package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/salescope/internal/domain"
)

// encodeProductJSON serializa las columnas JSON. Un historial o mapa de atributos
// nil se guarda como NULL para que "ausente" sobreviva al round trip.
func encodeProductJSON(p domain.Product) (attributes, history sql.NullString, err error) {
	if p.Attributes != nil {
		b, err := json.Marshal(p.Attributes)
		if err != nil {
			return attributes, history, fmt.Errorf("encode attributes: %w", err)
		}
		attributes = sql.NullString{String: string(b), Valid: true}
	}
	if p.History != nil {
		b, err := json.Marshal(p.History)
		if err != nil {
			return attributes, history, fmt.Errorf("encode history: %w", err)
		}
		history = sql.NullString{String: string(b), Valid: true}
	}
	return attributes, history, nil
}

func decodeProductJSON(p *domain.Product, attributes, history sql.NullString) error {
	if attributes.Valid && attributes.String != "" {
		if err := json.Unmarshal([]byte(attributes.String), &p.Attributes); err != nil {
			return fmt.Errorf("decode attributes: %w", err)
		}
	}
	if history.Valid && history.String != "" {
		return decodeHistory([]byte(history.String), &p.History)
	}
	return nil
}

// decodeHistory deserializa un historial. "null" deja h en nil; "[]"
// da un historial vacío, no nil.
func decodeHistory(data []byte, h *domain.SalesHistory) error {
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	return nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
