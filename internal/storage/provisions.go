package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"buchhaltung/internal/core"
)

const provisionColumns = `id, type, amount, year, description, reason, created_by, created_at`

func scanProvision(s rowScanner) (core.Provision, error) {
	var (
		p       core.Provision
		created sqlTime
	)
	err := s.Scan(&p.ID, &p.Type, &p.Amount, &p.Year, &p.Description, &p.Reason, &p.CreatedBy, &created)
	p.CreatedAt = created.Time
	return p, err
}

func (r *SQLRepository) CreateProvision(ctx context.Context, p core.Provision) (core.Provision, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	err := r.queries.queryRow(ctx, `
		INSERT INTO provisions (type, amount, year, description, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Type, p.Amount, p.Year, p.Description, p.Reason, p.CreatedBy, r.queries.timestamp(p.CreatedAt)).Scan(&p.ID)
	if err != nil {
		return core.Provision{}, fmt.Errorf("create provision: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) GetProvision(ctx context.Context, id int64) (core.Provision, error) {
	p, err := scanProvision(r.queries.queryRow(ctx, `SELECT `+provisionColumns+` FROM provisions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Provision{}, &core.NotFoundError{Entity: "provision", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return core.Provision{}, fmt.Errorf("get provision %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLRepository) ListProvisions(ctx context.Context, f ProvisionFilter) ([]core.Provision, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Year != 0 {
		where, args = append(where, `year = ?`), append(args, f.Year)
	}
	if f.MinYear != 0 {
		where, args = append(where, `year >= ?`), append(args, f.MinYear)
	}
	if f.Type != "" {
		where, args = append(where, `type = ?`), append(args, f.Type)
	}
	query := `SELECT ` + provisionColumns + ` FROM provisions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY year DESC, id DESC`

	rows, err := r.queries.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list provisions: %w", err)
	}
	defer rows.Close()

	var provisions []core.Provision
	for rows.Next() {
		p, err := scanProvision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provision: %w", err)
		}
		provisions = append(provisions, p)
	}
	return provisions, rows.Err()
}
