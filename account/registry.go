package account

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the accounts of one process and which one is active.
type Registry struct {
	mu       sync.RWMutex
	accounts map[string]TradingAccount
	active   string
}

func NewRegistry() *Registry {
	return &Registry{accounts: make(map[string]TradingAccount)}
}

// Add registers acct. The first account added becomes active.
func (r *Registry) Add(acct TradingAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acct.ID()]; ok {
		return fmt.Errorf("add %q: %w", acct.ID(), ErrAccountExists)
	}
	r.accounts[acct.ID()] = acct
	if r.active == "" {
		r.active = acct.ID()
	}
	return nil
}

func (r *Registry) Get(accountID string) (TradingAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", accountID, ErrAccountNotFound)
	}
	return acct, nil
}

// Remove drops an account. The active account cannot be removed.
func (r *Registry) Remove(accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[accountID]; !ok {
		return fmt.Errorf("remove %q: %w", accountID, ErrAccountNotFound)
	}
	if accountID == r.active {
		return fmt.Errorf("remove %q: %w", accountID, ErrActiveAccount)
	}
	delete(r.accounts, accountID)
	return nil
}

func (r *Registry) SetActive(accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[accountID]; !ok {
		return fmt.Errorf("activate %q: %w", accountID, ErrAccountNotFound)
	}
	r.active = accountID
	return nil
}

func (r *Registry) Active() (TradingAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == "" {
		return nil, ErrNoActiveAccount
	}
	return r.accounts[r.active], nil
}

// List returns accounts sorted by id.
func (r *Registry) List() []TradingAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TradingAccount, 0, len(r.accounts))
	for _, acct := range r.accounts {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
