package delivery

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/shared"
)

// Legacy rows reference their delivery only through free text like
// "Entrega N°48" / "entrega 12" / "ENTREGA Nº 7".
var seqPattern = regexp.MustCompile(`(?i)entrega\s*(?:n[º°o]\s*)?(\d+)`)

// ResolveMovementDelivery recovers the delivery a movement belongs to.
// Fallback order: explicit movement link, explicit sequence column,
// description pattern, unresolved. An ambiguous match is reported as such,
// never guessed.
func (s *Service) ResolveMovementDelivery(ctx context.Context, m ledger.Movement) (*Delivery, error) {
	if d, err := s.repo.GetByMovement(ctx, m.ID); err == nil {
		return d, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if m.DeliverySeq != nil {
		d, err := s.matchBySeq(ctx, *m.DeliverySeq, m.ResellerID)
		if err != nil || d != nil {
			return d, err
		}
	}

	if match := seqPattern.FindStringSubmatch(m.Description); match != nil {
		seq, err := strconv.ParseInt(match[1], 10, 64)
		if err == nil {
			d, err := s.matchBySeq(ctx, seq, m.ResellerID)
			if err != nil || d != nil {
				return d, err
			}
		}
	}

	return nil, shared.ErrNotFound
}

// matchBySeq returns the single delivery carrying seq for the reseller, nil
// when none exists, and ErrAmbiguousReference when more than one candidate
// survives filtering.
func (s *Service) matchBySeq(ctx context.Context, seq int64, resellerID int64) (*Delivery, error) {
	candidates, err := s.repo.FindBySeq(ctx, seq)
	if err != nil {
		return nil, err
	}
	var matched []Delivery
	for _, c := range candidates {
		if c.ResellerID != nil && *c.ResellerID != resellerID {
			continue
		}
		matched = append(matched, c)
	}
	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return &matched[0], nil
	default:
		return nil, shared.ErrAmbiguousReference
	}
}
