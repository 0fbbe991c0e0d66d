package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/ideabox/internal/identity/entity"
	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/instrument"
)

const (
	PostgresUserTable  = "identity_user_credentials"
	PostgresAdminTable = "identity_admin_credentials"
)

type pgQueries struct {
	find       string
	findByCode string
	set        string
	clear      string
}

func newPGQueries(table string) pgQueries {
	const cols = `corporate_id, email, role, otp, otp_expiry`
	return pgQueries{
		find:       `SELECT ` + cols + ` FROM ` + table + ` WHERE corporate_id = $1`,
		findByCode: `SELECT ` + cols + ` FROM ` + table + ` WHERE corporate_id = $1 AND otp = $2`,
		set:        `UPDATE ` + table + ` SET otp = $2, otp_expiry = $3 WHERE corporate_id = $1`,
		clear:      `UPDATE ` + table + ` SET otp = NULL, otp_expiry = NULL WHERE corporate_id = $1`,
	}
}

// Postgres stores identities in two tables. A cleared challenge is NULL in
// both columns; the CHECK keeps the pair in lockstep.
type Postgres struct {
	conn   *pgxpool.Pool
	users  pgQueries
	admins pgQueries
	tracer
}

func NewPostgres(conn *pgxpool.Pool, ins instrument.Instrumentation) *Postgres {
	return &Postgres{
		conn:   conn,
		users:  newPGQueries(PostgresUserTable),
		admins: newPGQueries(PostgresAdminTable),
		tracer: tracer{ins: ins},
	}
}

// EnsureSchema creates both tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{PostgresUserTable, PostgresAdminTable} {
		if _, err := p.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
			corporate_id TEXT PRIMARY KEY,
			email        TEXT NOT NULL,
			role         TEXT NOT NULL DEFAULT '',
			otp          TEXT,
			otp_expiry   TIMESTAMPTZ,
			CHECK ((otp IS NULL) = (otp_expiry IS NULL))
		)`); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) queries(c entity.Collection) (pgQueries, error) {
	switch c {
	case entity.CollectionUser:
		return p.users, nil
	case entity.CollectionAdmin:
		return p.admins, nil
	default:
		return pgQueries{}, errUnknownCollection
	}
}

func (p *Postgres) FindByCorporateID(ctx context.Context, c entity.Collection, corporateID string) (_ *entity.Identity, err error) {
	ctx, span := p.startSpan(ctx, "FindByCorporateID", c)
	defer func() { p.endSpan(span, err) }()

	q, err := p.queries(c)
	if err != nil {
		return nil, err
	}
	return p.scanOne(p.conn.QueryRow(ctx, q.find, corporateID))
}

func (p *Postgres) FindByCorporateIDAndCode(ctx context.Context, c entity.Collection, corporateID, code string) (_ *entity.Identity, err error) {
	ctx, span := p.startSpan(ctx, "FindByCorporateIDAndCode", c)
	defer func() { p.endSpan(span, err) }()

	q, err := p.queries(c)
	if err != nil {
		return nil, err
	}
	return p.scanOne(p.conn.QueryRow(ctx, q.findByCode, corporateID, code))
}

func (p *Postgres) scanOne(row pgx.Row) (*entity.Identity, error) {
	var (
		ident  entity.Identity
		otp    *string
		expiry *time.Time
	)
	if err := row.Scan(&ident.CorporateID, &ident.Email, &ident.Role, &otp, &expiry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerror.ErrNotFound
		}
		return nil, err
	}
	ident.OTP = otp
	ident.OTPExpiry = expiry
	return &ident, nil
}

func (p *Postgres) SetOTP(ctx context.Context, c entity.Collection, corporateID string, ch entity.Challenge) (err error) {
	ctx, span := p.startSpan(ctx, "SetOTP", c)
	defer func() { p.endSpan(span, err) }()

	q, err := p.queries(c)
	if err != nil {
		return err
	}
	return p.exec(ctx, q.set, corporateID, ch.Code, ch.ExpiresAt.UTC())
}

func (p *Postgres) ClearOTP(ctx context.Context, c entity.Collection, corporateID string) (err error) {
	ctx, span := p.startSpan(ctx, "ClearOTP", c)
	defer func() { p.endSpan(span, err) }()

	q, err := p.queries(c)
	if err != nil {
		return err
	}
	return p.exec(ctx, q.clear, corporateID)
}

func (p *Postgres) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := p.conn.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
