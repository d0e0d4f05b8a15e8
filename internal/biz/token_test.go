package biz

import (
	"context"
	"errors"
	"testing"

	"jobquality/internal/conf"
	"jobquality/internal/pkg/match"

	"github.com/go-kratos/kratos/v2/log"
)

type fakeTokenRepo struct {
	tokens   []*ToxicToken
	nextID   int64
	listAlls int
	err      error
}

func (f *fakeTokenRepo) Create(_ context.Context, t *ToxicToken) (*ToxicToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	t.ID = f.nextID
	f.tokens = append(f.tokens, t)
	return t, nil
}

func (f *fakeTokenRepo) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	out := f.tokens[:0]
	for _, t := range f.tokens {
		if t.ID != id {
			out = append(out, t)
		}
	}
	f.tokens = out
	return nil
}

func (f *fakeTokenRepo) List(_ context.Context, limit, offset int32) ([]*ToxicToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	lo := int(offset)
	if lo > len(f.tokens) {
		return nil, nil
	}
	hi := lo + int(limit)
	if hi > len(f.tokens) {
		hi = len(f.tokens)
	}
	return f.tokens[lo:hi], nil
}

func (f *fakeTokenRepo) ListAll(_ context.Context) ([]*ToxicToken, error) {
	f.listAlls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeTokenRepo) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.tokens)), nil
}

func newTokenUC(repo TokenRepo) *TokenUsecase {
	return NewTokenUsecase(repo, nil, &conf.Engine{DictionaryTTL: "5m"}, log.DefaultLogger)
}

func TestDictionaryCachesSnapshot(t *testing.T) {
	repo := &fakeTokenRepo{}
	uc := newTokenUC(repo)
	ctx := context.Background()

	if _, err := uc.AddToken(ctx, "без опыта работы", "phrase", 1.5); err != nil {
		t.Fatal(err)
	}

	d1, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Error("second call within TTL rebuilt the snapshot")
	}
	if repo.listAlls != 1 {
		t.Errorf("ListAll called %d times; want 1", repo.listAlls)
	}
	if d1.Len() != 1 {
		t.Errorf("Len = %d; want 1", d1.Len())
	}
}

func TestMutationsInvalidateSnapshot(t *testing.T) {
	repo := &fakeTokenRepo{}
	uc := newTokenUC(repo)
	ctx := context.Background()

	d1, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d1.Len() != 0 {
		t.Fatalf("Len = %d; want empty dictionary", d1.Len())
	}

	tok, err := uc.AddToken(ctx, "холодные звонки", "phrase", 2.0)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Len() != 1 {
		t.Errorf("Len after add = %d; want 1", d2.Len())
	}
	if d2.Version() == d1.Version() {
		t.Error("version unchanged across rebuild")
	}

	if err := uc.RemoveToken(ctx, tok.ID); err != nil {
		t.Fatal(err)
	}
	d3, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d3.Len() != 0 {
		t.Errorf("Len after remove = %d; want 0", d3.Len())
	}
}

func TestDictionaryServesStaleOnRepoError(t *testing.T) {
	repo := &fakeTokenRepo{}
	uc := newTokenUC(repo)
	ctx := context.Background()

	if _, err := uc.AddToken(ctx, "оплата после", "phrase", 1.0); err != nil {
		t.Fatal(err)
	}
	d1, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatal(err)
	}

	repo.err = errors.New("db down")
	uc.Invalidate()
	d2, err := uc.Dictionary(ctx)
	if err != nil {
		t.Fatalf("stale snapshot should be served without error: %v", err)
	}
	if d2 != d1 {
		t.Error("expected the stale snapshot instance")
	}
}

func TestDictionaryErrorsWithoutSnapshot(t *testing.T) {
	uc := newTokenUC(&fakeTokenRepo{err: errors.New("db down")})
	if _, err := uc.Dictionary(context.Background()); err == nil {
		t.Error("expected error when no snapshot exists yet")
	}
}

func TestAddTokenRejectsUnknownKind(t *testing.T) {
	uc := newTokenUC(&fakeTokenRepo{})
	if _, err := uc.AddToken(context.Background(), "spam", "glob", 1.0); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAddTokenKinds(t *testing.T) {
	repo := &fakeTokenRepo{}
	uc := newTokenUC(repo)
	ctx := context.Background()

	if _, err := uc.AddToken(ctx, `\$\d+`, "pattern", 0.5); err != nil {
		t.Fatal(err)
	}
	if repo.tokens[0].Kind != match.KindPattern {
		t.Errorf("Kind = %v; want pattern", repo.tokens[0].Kind)
	}
}

func TestListTokens(t *testing.T) {
	repo := &fakeTokenRepo{}
	uc := newTokenUC(repo)
	ctx := context.Background()
	for _, p := range []string{"a1 b2", "c3 d4", "e5 f6"} {
		if _, err := uc.AddToken(ctx, p, "phrase", 1.0); err != nil {
			t.Fatal(err)
		}
	}

	tokens, total, err := uc.ListTokens(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("total = %d; want 3", total)
	}
	if len(tokens) != 2 || tokens[0].ID != 2 {
		t.Errorf("page = %v; want ids 2 and 3", tokens)
	}
}
