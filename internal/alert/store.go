package alert

import (
	"context"
	"sort"
	"strings"

	"coinpaprika-price-alerts/internal/types"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "alert_"

// Backend is a namespaced key-value space. database.KV and cache.RedisKV
// implement it.
type Backend interface {
	All(ctx context.Context) ([]types.Entry, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	DeleteIf(ctx context.Context, key, value string) (bool, error)
}

// Store is the single source of truth for which alerts exist. Alerts are kept
// as alert_<ASSET> -> target price.
type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// NormalizeAssetID trims and upper-cases an asset identifier.
func NormalizeAssetID(assetID string) string {
	return strings.ToUpper(strings.TrimSpace(assetID))
}

// ParseTargetPrice parses user input into a positive price.
func ParseTargetPrice(assetID, raw string) (decimal.Decimal, error) {
	target, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &InvalidAlertError{AssetID: assetID, Target: raw, Reason: "not a number"}
	}
	if !target.IsPositive() {
		return decimal.Zero, &InvalidAlertError{AssetID: assetID, Target: raw, Reason: "must be greater than zero"}
	}
	return target, nil
}

// Load returns all persisted alerts. Values that no longer parse are skipped.
func (s *Store) Load(ctx context.Context) (map[string]decimal.Decimal, error) {
	alerts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]decimal.Decimal, len(alerts))
	for _, a := range alerts {
		m[a.AssetID] = a.TargetPrice
	}
	return m, nil
}

// List returns all persisted alerts sorted by asset.
func (s *Store) List(ctx context.Context) ([]types.Alert, error) {
	return s.alerts(ctx, "load")
}

// alerts reads the backend and keeps the entries that hold a readable alert.
// Every read of the store goes through here so counts agree with listings.
func (s *Store) alerts(ctx context.Context, op string) ([]types.Alert, error) {
	entries, err := s.backend.All(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: op, Err: err}
	}

	alerts := make([]types.Alert, 0, len(entries))
	for _, e := range entries {
		assetID, target, ok := parseEntry(e)
		if !ok {
			continue
		}
		alerts = append(alerts, types.Alert{
			AssetID:     assetID,
			TargetPrice: target,
			CreatedAt:   e.UpdatedAt,
		})
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].AssetID < alerts[j].AssetID })
	return alerts, nil
}

func parseEntry(e types.Entry) (string, decimal.Decimal, bool) {
	if !strings.HasPrefix(e.Key, keyPrefix) {
		return "", decimal.Zero, false
	}
	target, err := decimal.NewFromString(e.Value)
	if err != nil || !target.IsPositive() {
		log.WithFields(log.Fields{"key": e.Key, "value": e.Value}).Warn("Skipping unreadable alert")
		return "", decimal.Zero, false
	}
	return strings.TrimPrefix(e.Key, keyPrefix), target, true
}

// Put stores an alert, replacing any previous alert for the same asset. It
// returns once the write is durable.
func (s *Store) Put(ctx context.Context, assetID string, target decimal.Decimal) error {
	assetID = NormalizeAssetID(assetID)
	if assetID == "" {
		return &InvalidAlertError{AssetID: assetID, Target: target.String(), Reason: "asset id is empty"}
	}
	if !target.IsPositive() {
		return &InvalidAlertError{AssetID: assetID, Target: target.String(), Reason: "must be greater than zero"}
	}

	if err := s.backend.Set(ctx, keyPrefix+assetID, target.String()); err != nil {
		return &PersistenceError{Op: "put", AssetID: assetID, Err: err}
	}

	log.WithFields(log.Fields{"asset": assetID, "target": target.String()}).Info("Alert saved")
	return nil
}

// PutString parses raw and stores the alert. It returns the stored target.
func (s *Store) PutString(ctx context.Context, assetID, raw string) (decimal.Decimal, error) {
	target, err := ParseTargetPrice(NormalizeAssetID(assetID), raw)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.Put(ctx, assetID, target); err != nil {
		return decimal.Zero, err
	}
	return target, nil
}

// Remove deletes the alert for assetID, if any.
func (s *Store) Remove(ctx context.Context, assetID string) error {
	assetID = NormalizeAssetID(assetID)
	if err := s.backend.Delete(ctx, keyPrefix+assetID); err != nil {
		return &PersistenceError{Op: "remove", AssetID: assetID, Err: err}
	}
	return nil
}

// RemoveIf deletes the alert only while its target still equals target. It
// reports false when the alert is gone or was overwritten. Stored values are
// compared as decimals, so "50000.0" matches 50000.
func (s *Store) RemoveIf(ctx context.Context, assetID string, target decimal.Decimal) (bool, error) {
	assetID = NormalizeAssetID(assetID)
	key := keyPrefix + assetID

	entries, err := s.backend.All(ctx)
	if err != nil {
		return false, &PersistenceError{Op: "remove", AssetID: assetID, Err: err}
	}

	for _, e := range entries {
		if e.Key != key {
			continue
		}
		_, stored, ok := parseEntry(e)
		if !ok || !stored.Equal(target) {
			return false, nil
		}
		// The backend compares the raw value, so a write that lands after the
		// read above keeps the alert.
		removed, err := s.backend.DeleteIf(ctx, key, e.Value)
		if err != nil {
			return false, &PersistenceError{Op: "remove", AssetID: assetID, Err: err}
		}
		return removed, nil
	}
	return false, nil
}

// Count returns the number of readable alerts, the same set List returns.
func (s *Store) Count(ctx context.Context) (int, error) {
	alerts, err := s.alerts(ctx, "count")
	if err != nil {
		return 0, err
	}
	return len(alerts), nil
}

func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
