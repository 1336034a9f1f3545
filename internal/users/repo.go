package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adityapw/fittrack/internal/telemetry/tracing"
	"github.com/adityapw/fittrack/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO users (name, email, password_hash, avatar, nim, kelompok, created_at)
			VALUES ($1, LOWER($2), $3, $4, $5, $6, $7)
		RETURNING id;`,
		user.Name, user.Email, user.PasswordHash,
		user.Avatar, user.Nim, user.Kelompok, now,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil && pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", id))

	user.ID = id
	user.CreatedAt = &now
	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.getOne(
		ctx,
		`SELECT id, name, email, password_hash, avatar, nim, kelompok, created_at
			FROM users WHERE id = $1;`,
		id,
	)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(
		ctx,
		`SELECT id, name, email, password_hash, avatar, nim, kelompok, created_at
			FROM users WHERE email = LOWER($1);`,
		email,
	)
}

func (r *Repo) Update(ctx context.Context, user *User) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", user.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users
			SET name = $1, email = LOWER($2), password_hash = $3, avatar = $4, nim = $5, kelompok = $6
			WHERE id = $7;`,
		user.Name, user.Email, user.PasswordHash,
		user.Avatar, user.Nim, user.Kelompok, user.ID,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	users, err := r.rows2users(rows)
	if err != nil {
		return nil, err
	}

	if len(users) != 1 {
		return nil, ErrUserNotFound
	}

	return &users[0], nil
}

func (r *Repo) rows2users(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var id int
		var name, email, passwordHash string
		var avatar, nim, kelompok *string
		var createdAt *time.Time
		if err := rows.Scan(&id, &name, &email, &passwordHash, &avatar, &nim, &kelompok, &createdAt); err != nil {
			return nil, err
		}

		u := User{
			ID:           id,
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    createdAt,
		}
		if avatar != nil {
			u.Avatar = *avatar
		}
		if nim != nil {
			u.Nim = *nim
		}
		if kelompok != nil {
			u.Kelompok = *kelompok
		}

		users = append(users, u)
	}

	if users == nil {
		users = make([]User, 0)
	}

	return users, nil
}
