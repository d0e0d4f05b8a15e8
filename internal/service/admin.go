package service

import (
	"context"
	"time"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
)

// AdminService manages the toxic token dictionary.
type AdminService struct {
	tokens *biz.TokenUsecase
}

// NewAdminService creates a new AdminService.
func NewAdminService(tokens *biz.TokenUsecase) *AdminService {
	return &AdminService{tokens: tokens}
}

// CreateTokenRequest adds one toxic token to the dictionary.
type CreateTokenRequest struct {
	Phrase string  `json:"phrase"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

// TokenReply is one dictionary token.
type TokenReply struct {
	ID        int64     `json:"id"`
	Phrase    string    `json:"phrase"`
	Kind      string    `json:"kind"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListTokensReply is one dictionary page.
type ListTokensReply struct {
	Tokens []TokenReply `json:"tokens"`
	Total  int64        `json:"total"`
}

// CreateToken adds a toxic token.
func (s *AdminService) CreateToken(ctx context.Context, req *CreateTokenRequest) (*TokenReply, error) {
	if req.Phrase == "" {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "phrase is required")
	}
	t, err := s.tokens.AddToken(ctx, req.Phrase, req.Kind, req.Weight)
	if err != nil {
		return nil, errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	return tokenReply(t), nil
}

// DeleteToken removes a toxic token.
func (s *AdminService) DeleteToken(ctx context.Context, id int64) error {
	return s.tokens.RemoveToken(ctx, id)
}

// ListTokens lists the dictionary page by page.
func (s *AdminService) ListTokens(ctx context.Context, limit, offset int32) (*ListTokensReply, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	tokens, total, err := s.tokens.ListTokens(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]TokenReply, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, *tokenReply(t))
	}
	return &ListTokensReply{Tokens: out, Total: total}, nil
}

func tokenReply(t *biz.ToxicToken) *TokenReply {
	return &TokenReply{
		ID:        t.ID,
		Phrase:    t.Phrase,
		Kind:      t.Kind.String(),
		Weight:    t.Weight,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
