package biz

import (
	"context"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
)

func TestIngestDescriptionRecordsMatches(t *testing.T) {
	tokens := newTokenUC(&fakeTokenRepo{})
	ctx := context.Background()
	if _, err := tokens.AddToken(ctx, "без опыта работы", "phrase", 1.5); err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.AddToken(ctx, "сетевой маркетинг", "phrase", 2.0); err != nil {
		t.Fatal(err)
	}

	repo := &fakeListingRepo{}
	uc := NewListingUsecase(repo, tokens, nil, log.DefaultLogger)

	l := &Listing{ID: 42, Company: "Acme", DescriptionRaw: "<p>Ищем продавца без опыта работы.</p>"}
	if err := uc.IngestDescription(ctx, l); err != nil {
		t.Fatal(err)
	}

	stored := repo.listings[42]
	if stored == nil {
		t.Fatal("listing not persisted")
	}
	if stored.DescriptionNorm == "" || len(stored.Tokens) == 0 {
		t.Errorf("normalized form missing: norm=%q tokens=%d", stored.DescriptionNorm, len(stored.Tokens))
	}

	ids := repo.matches[42]
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("matches = %v; want only token 1", ids)
	}
}

func TestIngestDescriptionReplacesStaleMatches(t *testing.T) {
	tokens := newTokenUC(&fakeTokenRepo{})
	ctx := context.Background()
	if _, err := tokens.AddToken(ctx, "без опыта работы", "phrase", 1.5); err != nil {
		t.Fatal(err)
	}

	repo := &fakeListingRepo{}
	uc := NewListingUsecase(repo, tokens, nil, log.DefaultLogger)

	l := &Listing{ID: 7, DescriptionRaw: "Кандидат без опыта работы"}
	if err := uc.IngestDescription(ctx, l); err != nil {
		t.Fatal(err)
	}
	if len(repo.matches[7]) != 1 {
		t.Fatalf("matches = %v; want token 1", repo.matches[7])
	}

	// re-ingest with a clean description drops the stale record
	l2 := &Listing{ID: 7, DescriptionRaw: "Опытный специалист, белая зарплата"}
	if err := uc.IngestDescription(ctx, l2); err != nil {
		t.Fatal(err)
	}
	if len(repo.matches[7]) != 0 {
		t.Errorf("matches = %v; want none after re-ingest", repo.matches[7])
	}
}
