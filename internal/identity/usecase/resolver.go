package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
)

// resolve searches the collections in entity.ResolutionOrder and returns the
// first match, stamped with the collection it came from.
func (s *Usecase) resolve(ctx context.Context, corporateID string) (*entity.Identity, error) {
	return s.firstMatch(ctx, func(c entity.Collection) (*entity.Identity, error) {
		return s.repoDB.FindByCorporateID(ctx, c, corporateID)
	})
}

// resolveByCode matches identifier and code in the store query itself.
func (s *Usecase) resolveByCode(ctx context.Context, corporateID, code string) (*entity.Identity, error) {
	return s.firstMatch(ctx, func(c entity.Collection) (*entity.Identity, error) {
		return s.repoDB.FindByCorporateIDAndCode(ctx, c, corporateID, code)
	})
}

func (s *Usecase) firstMatch(ctx context.Context, find func(entity.Collection) (*entity.Identity, error)) (*entity.Identity, error) {
	for _, c := range entity.ResolutionOrder {
		ident, err := find(c)
		if errors.Is(err, goerror.ErrNotFound) || (err == nil && ident == nil) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo find identity", "collection", c.String(), "error", err)
			return nil, errors.Join(entity.ErrStorage, err)
		}
		ident.Collection = c
		return ident, nil
	}

	return nil, entity.ErrIdentityNotFound
}
