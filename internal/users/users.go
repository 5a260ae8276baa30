// Package users holds the fixed two-person account list and PIN
// verification. Accounts are seeded in code; profile edits and PIN
// changes live for the process lifetime only.
package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrWrongPIN    = errors.New("wrong pin")
)

type User struct {
	Username string
	Name     string
	Gender   string
	Avatar   string
}

type Profile struct {
	Name   string
	Gender string
	Avatar string
}

type Repository interface {
	FindByUsername(username string) (User, error)
	VerifyPIN(username, pin string) error
	UpdateProfile(username string, p Profile) error
	ChangePIN(username, oldPIN, newPIN string) error
}

type account struct {
	user    User
	pinHash []byte
}

// StaticRepository keeps the account list in memory behind a mutex.
type StaticRepository struct {
	mu       sync.Mutex
	accounts map[string]*account
}

type Seed struct {
	Username string
	PIN      string
	Name     string
	Gender   string
}

// DefaultSeeds are the two household accounts.
var DefaultSeeds = []Seed{
	{Username: "silviapasya", PIN: "080599", Name: "Sisil", Gender: "female"},
	{Username: "rdfarizi", PIN: "028465", Name: "Fariz", Gender: "male"},
}

// NewStaticRepository hashes each seed PIN with bcrypt and returns the
// populated repository.
func NewStaticRepository(seeds []Seed) (*StaticRepository, error) {
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}
	repo := &StaticRepository{accounts: make(map[string]*account, len(seeds))}
	for _, s := range seeds {
		username := strings.TrimSpace(s.Username)
		if username == "" {
			return nil, errors.New("seed with empty username")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash pin for %s: %w", username, err)
		}
		repo.accounts[username] = &account{
			user: User{
				Username: username,
				Name:     s.Name,
				Gender:   s.Gender,
			},
			pinHash: hash,
		}
	}
	return repo, nil
}

func (r *StaticRepository) FindByUsername(username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[username]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return acc.user, nil
}

func (r *StaticRepository) VerifyPIN(username, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[username]
	if !ok {
		return ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(acc.pinHash, []byte(pin)); err != nil {
		return ErrWrongPIN
	}
	return nil
}

func (r *StaticRepository) UpdateProfile(username string, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[username]
	if !ok {
		return ErrUnknownUser
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		acc.user.Name = name
	}
	if gender := strings.TrimSpace(p.Gender); gender != "" {
		acc.user.Gender = gender
	}
	if avatar := strings.TrimSpace(p.Avatar); avatar != "" {
		acc.user.Avatar = avatar
	}
	return nil
}

func (r *StaticRepository) ChangePIN(username, oldPIN, newPIN string) error {
	newPIN = strings.TrimSpace(newPIN)
	if len(newPIN) < 4 {
		return errors.New("pin must be at least 4 digits")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[username]
	if !ok {
		return ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(acc.pinHash, []byte(oldPIN)); err != nil {
		return ErrWrongPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	acc.pinHash = hash
	return nil
}
