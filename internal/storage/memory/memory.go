// Package memory is an in-process implementation of storage.Store. It backs
// the tests and DB_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"buchhaltung/internal/core"
	"buchhaltung/internal/storage"
)

type data struct {
	accounts     map[string]core.Account
	entries      []core.LedgerEntry
	assets       []core.Asset
	depreciation []core.DepreciationEntry
	provisions   []core.Provision
	seq          map[string]int64
}

func (d *data) clone() *data {
	c := &data{
		accounts:     make(map[string]core.Account, len(d.accounts)),
		entries:      append([]core.LedgerEntry(nil), d.entries...),
		assets:       append([]core.Asset(nil), d.assets...),
		depreciation: append([]core.DepreciationEntry(nil), d.depreciation...),
		provisions:   append([]core.Provision(nil), d.provisions...),
		seq:          make(map[string]int64, len(d.seq)),
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

// Store keeps all state in memory. Transactions work on a copy that replaces
// the committed state when fn succeeds, so a failed transaction leaves no
// trace. Transactions are serialized.
type Store struct {
	mu   *sync.Mutex // nil on transactional views
	data *data
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &data{
			accounts: map[string]core.Account{},
			seq:      map[string]int64{},
		},
		now: time.Now,
	}
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.mu == nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{data: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// accounts

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	defer s.lock()()
	out := make([]core.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, number string) (core.Account, error) {
	defer s.lock()()
	a, ok := s.data.accounts[number]
	if !ok {
		return core.Account{}, &core.NotFoundError{Entity: "account", Key: number}
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	defer s.lock()()
	if _, ok := s.data.accounts[a.Number]; ok {
		return core.Account{}, &core.ConflictError{Entity: "account", Key: a.Number, Reason: "account number already exists"}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	s.data.accounts[a.Number] = a
	return a, nil
}

func (s *Store) EnsureAccount(ctx context.Context, a core.Account) (bool, error) {
	defer s.lock()()
	if _, ok := s.data.accounts[a.Number]; ok {
		return false, nil
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	s.data.accounts[a.Number] = a
	return true, nil
}

func (s *Store) SetAccountActive(ctx context.Context, number string, active bool) error {
	defer s.lock()()
	a, ok := s.data.accounts[number]
	if !ok {
		return &core.NotFoundError{Entity: "account", Key: number}
	}
	a.IsActive = active
	s.data.accounts[number] = a
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, number string) error {
	defer s.lock()()
	if _, ok := s.data.accounts[number]; !ok {
		return &core.NotFoundError{Entity: "account", Key: number}
	}
	delete(s.data.accounts, number)
	return nil
}

func (s *Store) AccountInUse(ctx context.Context, number string) (bool, error) {
	defer s.lock()()
	for _, e := range s.data.entries {
		if e.DebitAccount == number || e.CreditAccount == number {
			return true, nil
		}
	}
	for _, a := range s.data.assets {
		if a.AccountNumber == number {
			return true, nil
		}
	}
	return false, nil
}

// ledger

func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	defer s.lock()()
	s.data.seq[name]++
	return s.data.seq[name], nil
}

func (s *Store) LedgerWatermark(ctx context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.data.entries)), nil
}

func (s *Store) InsertEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	defer s.lock()()
	for _, existing := range s.data.entries {
		switch {
		case existing.EntryNumber == e.EntryNumber:
			return core.LedgerEntry{}, &core.ConflictError{Entity: "ledger entry", Key: e.EntryNumber, Reason: "entry number already booked"}
		case e.ReversesID != nil && existing.ReversesID != nil && *existing.ReversesID == *e.ReversesID:
			return core.LedgerEntry{}, &core.ConflictError{Entity: "ledger entry", Key: strconv.FormatInt(*e.ReversesID, 10), Reason: "entry already reversed"}
		case !e.IsStorno && !existing.IsStorno && e.SourceID != "" &&
			existing.SourceType == e.SourceType && existing.SourceID == e.SourceID:
			return core.LedgerEntry{}, &core.ConflictError{Entity: "ledger entry", Key: e.SourceID, Reason: "source reference already booked"}
		}
	}
	e.ID = int64(len(s.data.entries) + 1)
	e.BookingDate = core.DateOf(e.BookingDate)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.data.entries = append(s.data.entries, e)
	return e, nil
}

func (s *Store) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	defer s.lock()()
	if id < 1 || id > int64(len(s.data.entries)) {
		return core.LedgerEntry{}, &core.NotFoundError{Entity: "ledger entry", Key: strconv.FormatInt(id, 10)}
	}
	return s.data.entries[id-1], nil
}

func (s *Store) FindReversal(ctx context.Context, id int64) (core.LedgerEntry, bool, error) {
	defer s.lock()()
	for _, e := range s.data.entries {
		if e.ReversesID != nil && *e.ReversesID == id {
			return e, true, nil
		}
	}
	return core.LedgerEntry{}, false, nil
}

func (s *Store) FindBySource(ctx context.Context, st core.SourceType, sourceID string) (core.LedgerEntry, bool, error) {
	defer s.lock()()
	for _, e := range s.data.entries {
		if !e.IsStorno && e.SourceType == st && e.SourceID == sourceID {
			return e, true, nil
		}
	}
	return core.LedgerEntry{}, false, nil
}

func (s *Store) QueryEntries(ctx context.Context, f core.EntryFilter) ([]core.LedgerEntry, error) {
	defer s.lock()()
	var out []core.LedgerEntry
	for _, e := range s.data.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return core.LessEntry(out[i], out[j]) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// assets

func (s *Store) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	defer s.lock()()
	for _, existing := range s.data.assets {
		if existing.AssetNumber == a.AssetNumber {
			return core.Asset{}, &core.ConflictError{Entity: "asset", Key: a.AssetNumber, Reason: "asset number already exists"}
		}
		if a.SourceID != "" && existing.SourceID == a.SourceID {
			return core.Asset{}, &core.ConflictError{Entity: "asset", Key: a.SourceID, Reason: "source reference already registered"}
		}
	}
	a.ID = int64(len(s.data.assets) + 1)
	a.AcquisitionDate = core.DateOf(a.AcquisitionDate)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	s.data.assets = append(s.data.assets, a)
	return a, nil
}

func (s *Store) asset(id int64) (*core.Asset, error) {
	if id < 1 || id > int64(len(s.data.assets)) {
		return nil, &core.NotFoundError{Entity: "asset", Key: strconv.FormatInt(id, 10)}
	}
	return &s.data.assets[id-1], nil
}

func (s *Store) GetAsset(ctx context.Context, id int64) (core.Asset, error) {
	defer s.lock()()
	a, err := s.asset(id)
	if err != nil {
		return core.Asset{}, err
	}
	return *a, nil
}

func (s *Store) FindAssetBySource(ctx context.Context, sourceID string) (core.Asset, bool, error) {
	defer s.lock()()
	if sourceID == "" {
		return core.Asset{}, false, nil
	}
	for _, a := range s.data.assets {
		if a.SourceID == sourceID {
			return a, true, nil
		}
	}
	return core.Asset{}, false, nil
}

func (s *Store) ListAssets(ctx context.Context, status core.AssetStatus) ([]core.Asset, error) {
	defer s.lock()()
	var out []core.Asset
	for _, a := range s.data.assets {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListDepreciable(ctx context.Context) ([]core.Asset, error) {
	defer s.lock()()
	var out []core.Asset
	for _, a := range s.data.assets {
		if a.Depreciable() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) UpdateAssetBookValue(ctx context.Context, id int64, bookValue decimal.Decimal, fullyDepreciated bool) error {
	defer s.lock()()
	a, err := s.asset(id)
	if err != nil {
		return err
	}
	a.BookValue = bookValue
	a.FullyDepreciated = fullyDepreciated
	return nil
}

func (s *Store) SetAssetStatus(ctx context.Context, id int64, status core.AssetStatus) error {
	defer s.lock()()
	a, err := s.asset(id)
	if err != nil {
		return err
	}
	a.Status = status
	return nil
}

func (s *Store) TryInsertDepreciationEntry(ctx context.Context, d core.DepreciationEntry) (storage.InsertResult, core.DepreciationEntry, error) {
	defer s.lock()()
	for _, existing := range s.data.depreciation {
		if existing.AssetID == d.AssetID && existing.Year == d.Year && existing.Month == d.Month {
			return storage.AlreadyExists, existing, nil
		}
	}
	d.ID = int64(len(s.data.depreciation) + 1)
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	s.data.depreciation = append(s.data.depreciation, d)
	return storage.Inserted, d, nil
}

func (s *Store) LinkDepreciationEntry(ctx context.Context, id, ledgerEntryID int64) error {
	defer s.lock()()
	if id < 1 || id > int64(len(s.data.depreciation)) {
		return &core.NotFoundError{Entity: "depreciation entry", Key: strconv.FormatInt(id, 10)}
	}
	s.data.depreciation[id-1].LedgerEntryID = &ledgerEntryID
	return nil
}

func (s *Store) ListDepreciationEntries(ctx context.Context, assetID int64) ([]core.DepreciationEntry, error) {
	defer s.lock()()
	var out []core.DepreciationEntry
	for _, d := range s.data.depreciation {
		if d.AssetID == assetID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return core.Period{Year: out[i].Year, Month: out[i].Month}.Before(core.Period{Year: out[j].Year, Month: out[j].Month})
	})
	return out, nil
}

// provisions

func (s *Store) CreateProvision(ctx context.Context, p core.Provision) (core.Provision, error) {
	defer s.lock()()
	p.ID = int64(len(s.data.provisions) + 1)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.data.provisions = append(s.data.provisions, p)
	return p, nil
}

func (s *Store) GetProvision(ctx context.Context, id int64) (core.Provision, error) {
	defer s.lock()()
	if id < 1 || id > int64(len(s.data.provisions)) {
		return core.Provision{}, &core.NotFoundError{Entity: "provision", Key: strconv.FormatInt(id, 10)}
	}
	return s.data.provisions[id-1], nil
}

func (s *Store) ListProvisions(ctx context.Context, f storage.ProvisionFilter) ([]core.Provision, error) {
	defer s.lock()()
	var out []core.Provision
	for _, p := range s.data.provisions {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
