package users

import (
	"errors"
	"testing"
)

func newRepo(t *testing.T) *StaticRepository {
	t.Helper()
	repo, err := NewStaticRepository([]Seed{
		{Username: "silviapasya", PIN: "080599", Name: "Sisil", Gender: "female"},
		{Username: "rdfarizi", PIN: "028465", Name: "Fariz", Gender: "male"},
	})
	if err != nil {
		t.Fatalf("seed repository: %v", err)
	}
	return repo
}

func TestFindByUsername(t *testing.T) {
	repo := newRepo(t)

	u, err := repo.FindByUsername("silviapasya")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.Name != "Sisil" || u.Gender != "female" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := repo.FindByUsername("nobody"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestVerifyPIN(t *testing.T) {
	repo := newRepo(t)

	if err := repo.VerifyPIN("rdfarizi", "028465"); err != nil {
		t.Fatalf("correct pin rejected: %v", err)
	}
	if err := repo.VerifyPIN("rdfarizi", "000000"); !errors.Is(err, ErrWrongPIN) {
		t.Fatalf("expected ErrWrongPIN, got %v", err)
	}
	if err := repo.VerifyPIN("nobody", "028465"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestUpdateProfileKeepsBlanks(t *testing.T) {
	repo := newRepo(t)

	if err := repo.UpdateProfile("silviapasya", Profile{Name: "Silvia", Avatar: "/uploads/a.png"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	u, _ := repo.FindByUsername("silviapasya")
	if u.Name != "Silvia" || u.Avatar != "/uploads/a.png" {
		t.Fatalf("update not applied: %+v", u)
	}
	// Blank fields leave current values alone.
	if u.Gender != "female" {
		t.Fatalf("blank gender overwrote value: %+v", u)
	}
}

func TestChangePIN(t *testing.T) {
	repo := newRepo(t)

	if err := repo.ChangePIN("rdfarizi", "wrong", "123456"); !errors.Is(err, ErrWrongPIN) {
		t.Fatalf("expected ErrWrongPIN, got %v", err)
	}
	if err := repo.ChangePIN("rdfarizi", "028465", "12"); err == nil {
		t.Fatal("expected error for short pin")
	}
	if err := repo.ChangePIN("rdfarizi", "028465", "123456"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := repo.VerifyPIN("rdfarizi", "123456"); err != nil {
		t.Fatalf("new pin rejected: %v", err)
	}
	if err := repo.VerifyPIN("rdfarizi", "028465"); !errors.Is(err, ErrWrongPIN) {
		t.Fatalf("old pin still accepted: %v", err)
	}
}
