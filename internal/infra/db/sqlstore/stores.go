package sqlstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"airbrb/internal/app/middleware"
	appoutbox "airbrb/internal/app/outbox"
	domainauth "airbrb/internal/domain/auth"
	domainuser "airbrb/internal/domain/user"
	infraoutbox "airbrb/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"

	claimLease = time.Minute
)

// OutboxStore inserts records through the transaction on ctx so they commit
// with the aggregates; the relay worker publishes them.
type OutboxStore struct {
	DB *gorm.DB
}

func (s OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	row := outboxModel{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return txFrom(ctx, s.DB).Create(&row).Error
}

func (s OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim picks the oldest due record and leases it with a guarded update, so
// two workers never claim the same row.
func (s OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Claimed, error) {
	db := s.DB.WithContext(ctx)
	for attempt := 0; attempt < 3; attempt++ {
		now := time.Now().UTC()
		var row outboxModel
		err := db.
			Where("(state IN ? AND next_attempt <= ?) OR (state = ? AND claimed_at <= ?)",
				[]string{stateNew, stateFailed}, now, stateClaimed, now.Add(-claimLease)).
			Order("created_at").
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		res := db.Model(&outboxModel{}).
			Where("id = ? AND state = ? AND attempts = ?", row.ID, row.State, row.Attempts).
			Updates(map[string]any{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &infraoutbox.Claimed{
				Record: appoutbox.EventRecord{
					ID:         row.ID,
					Name:       row.Name,
					Payload:    row.Payload,
					OccurredAt: row.OccurredAt.UTC(),
					Aggregate:  row.Aggregate,
					Headers:    row.Headers,
				},
				Attempts: row.Attempts,
			}, nil
		}
	}
	return nil, nil
}

func (s OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{"state": stateSent, "sent_at": now}).Error
}

func (s OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return s.DB.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":        stateFailed,
			"next_attempt": next,
			"last_error":   errMsg,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
}

// IdempotencyStore keeps replayable results for TTL.
type IdempotencyStore struct {
	DB  *gorm.DB
	TTL time.Duration
}

func (s IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	q := s.DB.WithContext(ctx).Where("idem_key = ?", key)
	if s.TTL > 0 {
		q = q.Where("created_at > ?", time.Now().UTC().Add(-s.TTL))
	}
	var row idempotencyModel
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{Key: row.Key, Payload: row.Payload, OccurredAt: row.OccurredAt.UTC()}, true, nil
}

func (s IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	row := idempotencyModel{Key: rec.Key, Payload: rec.Payload, OccurredAt: rec.OccurredAt, CreatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Purge deletes expired keys.
func (s IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s.TTL <= 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Where("created_at <= ?", time.Now().UTC().Add(-s.TTL)).Delete(&idempotencyModel{})
	return res.RowsAffected, res.Error
}

type UserRepository struct {
	DB *gorm.DB
}

func (r UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.first(ctx, "id = ?", string(id))
}

func (r UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	normalized, err := domainuser.NormalizeEmail(email)
	if err != nil {
		return nil, domainuser.ErrNotFound
	}
	return r.first(ctx, "email = ?", normalized)
}

func (r UserRepository) first(ctx context.Context, where string, arg any) (*domainuser.User, error) {
	var row userModel
	if err := r.DB.WithContext(ctx).Where(where, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return &domainuser.User{
		ID:           domainuser.ID(row.ID),
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func (r UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	if u == nil || u.ID == "" {
		return domainuser.ErrIDRequired
	}
	email, err := domainuser.NormalizeEmail(u.Email)
	if err != nil {
		return err
	}
	row := userModel{
		ID:           string(u.ID),
		Email:        email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
	err = r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "password_hash", "updated_at"}),
	}).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainuser.ErrEmailAlreadyUsed
	}
	return err
}

type SessionStore struct {
	DB *gorm.DB
}

func (s SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	row := sessionModel{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		CreatedAt: session.IssuedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (s SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var row sessionModel
	if err := s.DB.WithContext(ctx).Where("token = ?", string(token)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	session := &domainauth.Session{
		Token:     domainauth.Token(row.Token),
		UserID:    domainuser.ID(row.UserID),
		IssuedAt:  row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}
	if !session.ValidAt(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	return s.DB.WithContext(ctx).Where("token = ?", string(token)).Delete(&sessionModel{}).Error
}

var (
	_ appoutbox.Outbox            = OutboxStore{}
	_ infraoutbox.Queue           = OutboxStore{}
	_ middleware.IdempotencyStore = IdempotencyStore{}
	_ domainuser.Repository       = UserRepository{}
	_ domainauth.SessionStore     = SessionStore{}
)
