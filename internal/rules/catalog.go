package rules

import (
	"context"
	"sync"

	"github.com/taxmitra/compliance-copilot/constants"
	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// Definition is the fixed registration payload for one rule id.
type Definition struct {
	RuleID    string
	Title     string
	Severity  constants.Severity
	CheckKind constants.CheckKind
}

// Catalog registers and resolves compliance rules. Ensure is an idempotent
// upsert keyed on RuleID: the first registration creates the entry, every
// later call returns the existing entry unchanged regardless of the
// definition passed. The engine holds a Catalog instance; there is no
// ambient process-wide catalog.
type Catalog interface {
	Ensure(ctx context.Context, def Definition) (*entity.Rule, error)
}

// MemoryCatalog is an in-process Catalog, used in tests and as the default
// when no storage-backed catalog is wired.
type MemoryCatalog struct {
	mu      sync.Mutex
	entries map[string]*entity.Rule
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]*entity.Rule)}
}

func (c *MemoryCatalog) Ensure(_ context.Context, def Definition) (*entity.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.entries[def.RuleID]; ok {
		return r, nil
	}
	r := &entity.Rule{
		RuleID:    def.RuleID,
		Title:     def.Title,
		Severity:  def.Severity,
		CheckKind: def.CheckKind,
	}
	c.entries[def.RuleID] = r
	return r, nil
}

// Len reports the number of registered rules.
func (c *MemoryCatalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
