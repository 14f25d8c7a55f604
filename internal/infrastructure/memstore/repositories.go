package memstore

import (
	"fmt"
	"sort"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type gameRepo struct{ st *state }

func (r gameRepo) Create(game *domain.Game) error {
	r.st.seq.game++
	game.ID = r.st.seq.game
	stamp(&game.CreatedAt, &game.UpdatedAt)
	r.st.games[game.ID] = game.Clone()
	return nil
}

func (r gameRepo) GetByID(id int64) (*domain.Game, error) {
	return r.st.games[id].Clone(), nil
}

func (r gameRepo) GetByIDForUpdate(id int64) (*domain.Game, error) {
	return r.GetByID(id)
}

func (r gameRepo) Update(game *domain.Game) error {
	if _, ok := r.st.games[game.ID]; !ok {
		return fmt.Errorf("game %d does not exist", game.ID)
	}
	stamp(nil, &game.UpdatedAt)
	r.st.games[game.ID] = game.Clone()
	return nil
}

func (r gameRepo) List(statuses []domain.GameStatus, limit, offset int) ([]*domain.Game, error) {
	want := map[domain.GameStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var out []*domain.Game
	keys := sortedKeys(r.st.games)
	for i := len(keys) - 1; i >= 0; i-- {
		g := r.st.games[keys[i]]
		if len(want) > 0 && !want[g.Status] {
			continue
		}
		out = append(out, g.Clone())
	}
	return page(out, limit, offset), nil
}

type cardRepo struct{ st *state }

func (r cardRepo) CreateBatch(cards []*domain.BingoCard) error {
	for _, c := range cards {
		for _, other := range r.st.cards {
			if other.GameID == c.GameID && other.CardNumber == c.CardNumber {
				return fmt.Errorf("card number %d already used in game %d", c.CardNumber, c.GameID)
			}
		}
		r.st.seq.card++
		c.ID = r.st.seq.card
		for i := range c.Cells {
			r.st.seq.cell++
			c.Cells[i].ID = r.st.seq.cell
			c.Cells[i].CardID = c.ID
		}
		if c.MarkedNumbers == nil {
			c.MarkedNumbers = datatypes.JSONSlice[int]{}
		}
		stamp(&c.CreatedAt, &c.UpdatedAt)
		r.st.cards[c.ID] = c.Clone()
	}
	return nil
}

func (r cardRepo) GetByID(id int64) (*domain.BingoCard, error) {
	return r.st.cards[id].Clone(), nil
}

func (r cardRepo) filter(keep func(*domain.BingoCard) bool) []*domain.BingoCard {
	var out []*domain.BingoCard
	for _, id := range sortedKeys(r.st.cards) {
		if c := r.st.cards[id]; keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (r cardRepo) ListActiveByGame(gameID int64) ([]*domain.BingoCard, error) {
	return r.filter(func(c *domain.BingoCard) bool { return c.GameID == gameID && c.IsActive }), nil
}

func (r cardRepo) ListByUserAndGame(userID, gameID int64) ([]*domain.BingoCard, error) {
	return r.filter(func(c *domain.BingoCard) bool { return c.GameID == gameID && c.UserID == userID }), nil
}

func (r cardRepo) CountByUserAndGame(userID, gameID int64) (int, error) {
	cards, _ := r.ListByUserAndGame(userID, gameID)
	return len(cards), nil
}

func (r cardRepo) MaxCardNumber(gameID int64) (int, error) {
	max := 0
	for _, c := range r.st.cards {
		if c.GameID == gameID && c.CardNumber > max {
			max = c.CardNumber
		}
	}
	return max, nil
}

func (r cardRepo) MarkCells(cardID int64, positions []int, markedNumbers []int) error {
	stored, ok := r.st.cards[cardID]
	if !ok {
		return fmt.Errorf("card %d does not exist", cardID)
	}
	c := stored.Clone()
	for _, pos := range positions {
		for i := range c.Cells {
			if c.Cells[i].Position == pos {
				c.Cells[i].Marked = true
			}
		}
	}
	c.MarkedNumbers = append(c.MarkedNumbers, markedNumbers...)
	stamp(nil, &c.UpdatedAt)
	r.st.cards[cardID] = c
	return nil
}

func (r cardRepo) SetWinner(cardID int64, pattern domain.Pattern) error {
	stored, ok := r.st.cards[cardID]
	if !ok {
		return fmt.Errorf("card %d does not exist", cardID)
	}
	c := stored.Clone()
	c.IsWinner = true
	c.WinningPattern = pattern
	stamp(nil, &c.UpdatedAt)
	r.st.cards[cardID] = c
	return nil
}

type participantRepo struct{ st *state }

func (r participantRepo) Get(userID, gameID int64) (*domain.GameParticipant, error) {
	for _, p := range r.st.participants {
		if p.UserID == userID && p.GameID == gameID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r participantRepo) Create(p *domain.GameParticipant) error {
	if existing, _ := r.Get(p.UserID, p.GameID); existing != nil {
		return fmt.Errorf("participant (%d, %d) already exists", p.UserID, p.GameID)
	}
	r.st.seq.participant++
	p.ID = r.st.seq.participant
	stamp(&p.CreatedAt, &p.UpdatedAt)
	cp := *p
	r.st.participants[p.ID] = &cp
	return nil
}

func (r participantRepo) Update(p *domain.GameParticipant) error {
	if _, ok := r.st.participants[p.ID]; !ok {
		return fmt.Errorf("participant %d does not exist", p.ID)
	}
	stamp(nil, &p.UpdatedAt)
	cp := *p
	r.st.participants[p.ID] = &cp
	return nil
}

func (r participantRepo) CountByGame(gameID int64) (int, error) {
	n := 0
	for _, p := range r.st.participants {
		if p.GameID == gameID {
			n++
		}
	}
	return n, nil
}

type walletRepo struct{ st *state }

func (r walletRepo) Create(w *domain.Wallet) error {
	if _, ok := r.st.wallets[w.UserID]; ok {
		return fmt.Errorf("wallet for user %d already exists", w.UserID)
	}
	r.st.seq.wallet++
	w.ID = r.st.seq.wallet
	stamp(&w.CreatedAt, &w.UpdatedAt)
	cp := *w
	r.st.wallets[w.UserID] = &cp
	return nil
}

func (r walletRepo) CreateIfAbsent(w *domain.Wallet) (bool, error) {
	if _, ok := r.st.wallets[w.UserID]; ok {
		return false, nil
	}
	return true, r.Create(w)
}

func (r walletRepo) GetByUserID(userID int64) (*domain.Wallet, error) {
	w, ok := r.st.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r walletRepo) GetByUserIDForUpdate(userID int64) (*domain.Wallet, error) {
	return r.GetByUserID(userID)
}

func (r walletRepo) Update(w *domain.Wallet) error {
	if _, ok := r.st.wallets[w.UserID]; !ok {
		return fmt.Errorf("wallet for user %d does not exist", w.UserID)
	}
	stamp(nil, &w.UpdatedAt)
	cp := *w
	r.st.wallets[w.UserID] = &cp
	return nil
}

type transactionRepo struct{ st *state }

func (r transactionRepo) Create(t *domain.Transaction) error {
	r.st.seq.transaction++
	t.ID = r.st.seq.transaction
	stamp(&t.CreatedAt, nil)
	cp := *t
	r.st.transactions[t.ID] = &cp
	return nil
}

func (r transactionRepo) GetByID(id int64) (*domain.Transaction, error) {
	t, ok := r.st.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r transactionRepo) GetByUserID(userID int64, limit, offset int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	keys := sortedKeys(r.st.transactions)
	for i := len(keys) - 1; i >= 0; i-- {
		t := r.st.transactions[keys[i]]
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func (r transactionRepo) SumByTypeSince(userID int64, txType domain.TransactionType, since time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range r.st.transactions {
		if t.UserID == userID && t.Type == txType && !t.CreatedAt.Before(since) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

type depositRepo struct{ st *state }

func (r depositRepo) Create(d *domain.DepositRequest) error {
	for _, other := range r.st.deposits {
		if other.ReferenceCode == d.ReferenceCode {
			return fmt.Errorf("reference code %s already used", d.ReferenceCode)
		}
	}
	r.st.seq.deposit++
	d.ID = r.st.seq.deposit
	stamp(&d.CreatedAt, &d.UpdatedAt)
	cp := *d
	r.st.deposits[d.ID] = &cp
	return nil
}

func (r depositRepo) GetByID(id int64) (*domain.DepositRequest, error) {
	d, ok := r.st.deposits[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r depositRepo) GetByIDForUpdate(id int64) (*domain.DepositRequest, error) {
	return r.GetByID(id)
}

func (r depositRepo) Update(d *domain.DepositRequest) error {
	if _, ok := r.st.deposits[d.ID]; !ok {
		return fmt.Errorf("deposit %d does not exist", d.ID)
	}
	stamp(nil, &d.UpdatedAt)
	cp := *d
	r.st.deposits[d.ID] = &cp
	return nil
}

func (r depositRepo) list(keep func(*domain.DepositRequest) bool, newestFirst bool, limit, offset int) []*domain.DepositRequest {
	var out []*domain.DepositRequest
	keys := sortedKeys(r.st.deposits)
	for i := range keys {
		k := keys[i]
		if newestFirst {
			k = keys[len(keys)-1-i]
		}
		if d := r.st.deposits[k]; keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset)
}

func (r depositRepo) ListByUser(userID int64, limit, offset int) ([]*domain.DepositRequest, error) {
	return r.list(func(d *domain.DepositRequest) bool { return d.UserID == userID }, true, limit, offset), nil
}

func (r depositRepo) ListByStatus(status domain.RequestStatus, limit, offset int) ([]*domain.DepositRequest, error) {
	return r.list(func(d *domain.DepositRequest) bool { return d.Status == status }, false, limit, offset), nil
}

type withdrawalRepo struct{ st *state }

func (r withdrawalRepo) Create(w *domain.WithdrawalRequest) error {
	for _, other := range r.st.withdrawals {
		if other.ReferenceCode == w.ReferenceCode {
			return fmt.Errorf("reference code %s already used", w.ReferenceCode)
		}
	}
	r.st.seq.withdrawal++
	w.ID = r.st.seq.withdrawal
	stamp(&w.CreatedAt, &w.UpdatedAt)
	cp := *w
	r.st.withdrawals[w.ID] = &cp
	return nil
}

func (r withdrawalRepo) GetByID(id int64) (*domain.WithdrawalRequest, error) {
	w, ok := r.st.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r withdrawalRepo) GetByIDForUpdate(id int64) (*domain.WithdrawalRequest, error) {
	return r.GetByID(id)
}

func (r withdrawalRepo) Update(w *domain.WithdrawalRequest) error {
	if _, ok := r.st.withdrawals[w.ID]; !ok {
		return fmt.Errorf("withdrawal %d does not exist", w.ID)
	}
	stamp(nil, &w.UpdatedAt)
	cp := *w
	r.st.withdrawals[w.ID] = &cp
	return nil
}

func (r withdrawalRepo) list(keep func(*domain.WithdrawalRequest) bool, newestFirst bool, limit, offset int) []*domain.WithdrawalRequest {
	var out []*domain.WithdrawalRequest
	keys := sortedKeys(r.st.withdrawals)
	for i := range keys {
		k := keys[i]
		if newestFirst {
			k = keys[len(keys)-1-i]
		}
		if w := r.st.withdrawals[k]; keep(w) {
			cp := *w
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset)
}

func (r withdrawalRepo) ListByUser(userID int64, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	return r.list(func(w *domain.WithdrawalRequest) bool { return w.UserID == userID }, true, limit, offset), nil
}

func (r withdrawalRepo) ListByStatus(status domain.RequestStatus, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	return r.list(func(w *domain.WithdrawalRequest) bool { return w.Status == status }, false, limit, offset), nil
}

type auditRepo struct{ st *state }

func (r auditRepo) Create(entry *domain.AdminAuditLog) error {
	r.st.seq.audit++
	entry.ID = r.st.seq.audit
	stamp(&entry.CreatedAt, nil)
	cp := *entry
	r.st.audit[entry.ID] = &cp
	return nil
}

func (r auditRepo) ListByEntity(entityType string, entityID int64) ([]*domain.AdminAuditLog, error) {
	var out []*domain.AdminAuditLog
	for _, id := range sortedKeys(r.st.audit) {
		e := r.st.audit[id]
		if e.EntityType == entityType && e.EntityID == entityID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type outboxRepo struct{ st *state }

func (r outboxRepo) Save(event *domain.OutboxEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusPending
	}
	if _, ok := r.st.outboxOrder[event.ID]; !ok {
		r.st.seq.event++
		r.st.outboxOrder[event.ID] = r.st.seq.event
	}
	cp := *event
	r.st.outbox[event.ID] = &cp
	return nil
}

func (r outboxRepo) GetPendingEvents(limit int) ([]*domain.OutboxEvent, error) {
	var pending []*domain.OutboxEvent
	for _, e := range r.st.outbox {
		if e.Status == domain.EventStatusPending {
			cp := *e
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return r.st.outboxOrder[pending[i].ID] < r.st.outboxOrder[pending[j].ID]
	})
	return page(pending, limit, 0), nil
}

func (r outboxRepo) update(eventID string, fn func(*domain.OutboxEvent)) error {
	stored, ok := r.st.outbox[eventID]
	if !ok {
		return fmt.Errorf("outbox event %s does not exist", eventID)
	}
	cp := *stored
	fn(&cp)
	r.st.outbox[eventID] = &cp
	return nil
}

func (r outboxRepo) MarkAsProcessed(eventID string) error {
	return r.update(eventID, func(e *domain.OutboxEvent) {
		now := time.Now()
		e.Status = domain.EventStatusProcessed
		e.ProcessedAt = &now
	})
}

func (r outboxRepo) MarkAsFailed(eventID string, errMsg string) error {
	return r.update(eventID, func(e *domain.OutboxEvent) {
		now := time.Now()
		e.Status = domain.EventStatusFailed
		e.ProcessedAt = &now
		e.Error = &errMsg
	})
}

func (r outboxRepo) IncrementRetryCount(eventID string) error {
	return r.update(eventID, func(e *domain.OutboxEvent) {
		e.RetryCount++
	})
}
