// Package families — repository.go отвечает за все операции с таблицами
// families и members в БД. Каждая функция выполняет один запрос (или одну
// транзакцию) и возвращает результат или ошибку.
package families

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/trash-bot/internal/common"
)

// Код PostgreSQL для нарушения уникального ограничения
const pgUniqueViolation = "23505"

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateFamily создаёт семью и сразу добавляет создателя админом.
// Обе вставки выполняются в одной транзакции: семья без админа появиться не может.
// На дубликат названия возвращает common.ErrFamilyExists.
func (r *Repository) CreateFamily(ctx context.Context, name string, passwordHash *string, creatorID int64, creatorName string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var familyID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO families (name, password_hash) VALUES ($1, $2) RETURNING id`,
		name, passwordHash,
	).Scan(&familyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, common.ErrFamilyExists
		}
		return 0, fmt.Errorf("ошибка создания семьи: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO members (family_id, telegram_id, username, is_admin) VALUES ($1, $2, $3, TRUE)`,
		familyID, creatorID, creatorName,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления создателя семьи: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return familyID, nil
}

// GetFamilyByName возвращает семью по названию.
// Если семьи нет — common.ErrFamilyNotFound.
func (r *Repository) GetFamilyByName(ctx context.Context, name string) (*Family, error) {
	var f Family
	err := r.db.QueryRow(ctx,
		`SELECT id, name, password_hash FROM families WHERE name = $1`, name,
	).Scan(&f.ID, &f.Name, &f.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrFamilyNotFound
		}
		return nil, fmt.Errorf("ошибка чтения семьи (name=%s): %w", name, err)
	}
	return &f, nil
}

// GetFamilyForUser возвращает семью, в которой состоит пользователь.
// Схема допускает несколько членств; активной считаем самую старую запись.
// Если пользователь нигде не состоит — common.ErrNotInFamily.
func (r *Repository) GetFamilyForUser(ctx context.Context, telegramID int64) (*Family, error) {
	var f Family
	err := r.db.QueryRow(ctx, `
		SELECT f.id, f.name, f.password_hash
		FROM families f
		JOIN members m ON m.family_id = f.id
		WHERE m.telegram_id = $1
		ORDER BY m.id ASC
		LIMIT 1
	`, telegramID).Scan(&f.ID, &f.Name, &f.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotInFamily
		}
		return nil, fmt.Errorf("ошибка поиска семьи пользователя (telegram_id=%d): %w", telegramID, err)
	}
	return &f, nil
}

// AddMember добавляет участника в семью.
// Повторное вступление игнорируется (ON CONFLICT DO NOTHING) — строк-дубликатов не бывает.
func (r *Repository) AddMember(ctx context.Context, familyID, telegramID int64, username string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO members (family_id, telegram_id, username) VALUES ($1, $2, $3)
		ON CONFLICT (family_id, telegram_id) DO NOTHING
	`, familyID, telegramID, username)
	if err != nil {
		return fmt.Errorf("ошибка добавления участника: %w", err)
	}
	return nil
}

// GetMember возвращает участника семьи.
// Если записи нет — common.ErrMemberNotFound.
func (r *Repository) GetMember(ctx context.Context, familyID, telegramID int64) (*Member, error) {
	var m Member
	err := r.db.QueryRow(ctx, `
		SELECT id, family_id, telegram_id, COALESCE(username, ''), count, is_admin
		FROM members
		WHERE family_id = $1 AND telegram_id = $2
	`, familyID, telegramID).Scan(&m.ID, &m.FamilyID, &m.TelegramID, &m.Username, &m.Count, &m.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrMemberNotFound
		}
		return nil, fmt.Errorf("ошибка чтения участника (family_id=%d, telegram_id=%d): %w", familyID, telegramID, err)
	}
	return &m, nil
}

// IncrementCount увеличивает счётчик выносов участника на 1.
// Обновление ограничено одной семьёй: членства пользователя
// в других семьях не затрагиваются.
func (r *Repository) IncrementCount(ctx context.Context, familyID, telegramID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE members SET count = count + 1 WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка увеличения счётчика: %w", err)
	}
	return nil
}

// GetStats возвращает участников семьи для статистики:
// по убыванию счётчика, при равенстве — по имени.
func (r *Repository) GetStats(ctx context.Context, familyID int64) ([]*Member, error) {
	query := `
		SELECT id, family_id, telegram_id, COALESCE(username, ''), count, is_admin
		FROM members
		WHERE family_id = $1
		ORDER BY count DESC, username ASC
	`
	return r.queryMembers(ctx, query, familyID)
}

// GetMembers возвращает участников семьи по алфавиту (для админ-списка).
func (r *Repository) GetMembers(ctx context.Context, familyID int64) ([]*Member, error) {
	query := `
		SELECT id, family_id, telegram_id, COALESCE(username, ''), count, is_admin
		FROM members
		WHERE family_id = $1
		ORDER BY username ASC
	`
	return r.queryMembers(ctx, query, familyID)
}

// GetLeastMember возвращает участника с минимальным счётчиком.
// При равенстве выигрывает самая старая запись (наименьший id).
func (r *Repository) GetLeastMember(ctx context.Context, familyID int64) (*Member, error) {
	var m Member
	err := r.db.QueryRow(ctx, `
		SELECT id, family_id, telegram_id, COALESCE(username, ''), count, is_admin
		FROM members
		WHERE family_id = $1
		ORDER BY count ASC, id ASC
		LIMIT 1
	`, familyID).Scan(&m.ID, &m.FamilyID, &m.TelegramID, &m.Username, &m.Count, &m.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrMemberNotFound
		}
		return nil, fmt.Errorf("ошибка поиска отстающего участника: %w", err)
	}
	return &m, nil
}

// IsAdmin проверяет, является ли пользователь админом семьи.
func (r *Repository) IsAdmin(ctx context.Context, familyID, telegramID int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT is_admin FROM members WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID,
	).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки админ-прав: %w", err)
	}
	return isAdmin, nil
}

// SetCount выставляет счётчик участника в заданное значение.
func (r *Repository) SetCount(ctx context.Context, familyID, telegramID int64, newCount int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE members SET count = $3 WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID, newCount,
	)
	if err != nil {
		return fmt.Errorf("ошибка установки счётчика: %w", err)
	}
	return nil
}

// AdjustCount изменяет счётчик на delta с отсечкой в нуле.
// Отсечка выполняется в одном UPDATE — гонки двух изменений не уведут счётчик в минус.
func (r *Repository) AdjustCount(ctx context.Context, familyID, telegramID int64, delta int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE members SET count = GREATEST(0, count + $3) WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID, delta,
	)
	if err != nil {
		return fmt.Errorf("ошибка изменения счётчика: %w", err)
	}
	return nil
}

// ToggleAdmin переключает админ-флаг участника.
func (r *Repository) ToggleAdmin(ctx context.Context, familyID, telegramID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE members SET is_admin = NOT is_admin WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка переключения админ-прав: %w", err)
	}
	return nil
}

// RemoveMember удаляет участника из семьи.
func (r *Repository) RemoveMember(ctx context.Context, familyID, telegramID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM members WHERE family_id = $1 AND telegram_id = $2`,
		familyID, telegramID,
	)
	if err != nil {
		return fmt.Errorf("ошибка удаления участника: %w", err)
	}
	return nil
}

// ResetCounts обнуляет счётчики всех участников семьи.
func (r *Repository) ResetCounts(ctx context.Context, familyID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE members SET count = 0 WHERE family_id = $1`, familyID)
	if err != nil {
		return fmt.Errorf("ошибка сброса счётчиков: %w", err)
	}
	return nil
}

// DeleteFamily удаляет семью. Участники удаляются каскадно (FK ON DELETE CASCADE).
func (r *Repository) DeleteFamily(ctx context.Context, familyID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM families WHERE id = $1`, familyID)
	if err != nil {
		return fmt.Errorf("ошибка удаления семьи: %w", err)
	}
	return nil
}

// ListFamilies возвращает все семьи (для планировщика напоминаний).
func (r *Repository) ListFamilies(ctx context.Context) ([]*Family, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, password_hash FROM families ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса семей: %w", err)
	}
	defer rows.Close()

	var out []*Family
	for rows.Next() {
		var f Family
		if err := rows.Scan(&f.ID, &f.Name, &f.PasswordHash); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func (r *Repository) queryMembers(ctx context.Context, query string, args ...interface{}) ([]*Member, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.TelegramID, &m.Username, &m.Count, &m.IsAdmin); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
