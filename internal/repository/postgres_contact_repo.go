package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/contactman/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用した連絡先リポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

// contactColumns はSELECT句で使用するカラムの並び。scanContactと対で管理する。
const contactColumns = `id, name, surname, email, number, bd_date, additional_data, owner_id, created_at, updated_at`

// scanContact は1行分の連絡先を読み取る。
func scanContact(row interface{ Scan(...any) error }) (*model.Contact, error) {
	c := &model.Contact{}
	var additionalData sql.NullString

	err := row.Scan(
		&c.ID, &c.Name, &c.Surname, &c.Email, &c.Number,
		&c.BirthDate, &additionalData, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AdditionalData = nullStringValue(additionalData)
	return c, nil
}

// List はオーナーの連絡先を登録順（id昇順）で返す。該当なしの場合は空スライスを返す。
func (r *PostgresContactRepo) List(ctx context.Context, limit, offset int, ownerID int64) ([]*model.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE owner_id = $1
		 ORDER BY id ASC
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("連絡先一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// FindByID は指定IDかつ指定オーナーの連絡先を取得する。見つからない場合はnilを返す。
func (r *PostgresContactRepo) FindByID(ctx context.Context, id, ownerID int64) (*model.Contact, error) {
	contact, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("連絡先の取得に失敗しました: %w", err)
	}
	return contact, nil
}

// FindDuplicate はオーナー・メールアドレス・電話番号がすべて一致する連絡先を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresContactRepo) FindDuplicate(ctx context.Context, email, number string, ownerID int64) (*model.Contact, error) {
	contact, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE owner_id = $1 AND email = $2 AND number = $3`,
		ownerID, email, number,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("重複する連絡先の検索に失敗しました: %w", err)
	}
	return contact, nil
}

// Create は連絡先を新規作成し、採番されたIDとタイムスタンプを含むエンティティを返す。
func (r *PostgresContactRepo) Create(ctx context.Context, fields model.ContactFields, ownerID int64) (*model.Contact, error) {
	contact := &model.Contact{
		Name:           fields.Name,
		Surname:        fields.Surname,
		Email:          fields.Email,
		Number:         fields.Number,
		BirthDate:      fields.BirthDate,
		AdditionalData: fields.AdditionalData,
		OwnerID:        ownerID,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contacts (name, surname, email, number, bd_date, additional_data, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 RETURNING id, bd_date, created_at, updated_at`,
		fields.Name, fields.Surname, fields.Email, fields.Number,
		fields.BirthDate, nullString(fields.AdditionalData), ownerID,
	).Scan(&contact.ID, &contact.BirthDate, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("連絡先の作成に失敗しました: %w", err)
	}

	return contact, nil
}

// Update は指定ID・オーナーの連絡先の全可変フィールドを一括で上書きし、
// 更新後のエンティティを返す。該当行がない場合はnilを返す。
func (r *PostgresContactRepo) Update(ctx context.Context, id int64, fields model.ContactFields, ownerID int64) (*model.Contact, error) {
	contact, err := scanContact(r.db.QueryRowContext(ctx,
		`UPDATE contacts SET
		    name = $3, surname = $4, email = $5, number = $6,
		    bd_date = $7, additional_data = $8, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+contactColumns,
		id, ownerID,
		fields.Name, fields.Surname, fields.Email, fields.Number,
		fields.BirthDate, nullString(fields.AdditionalData),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("連絡先の更新に失敗しました: %w", err)
	}
	return contact, nil
}

// Delete は指定ID・オーナーの連絡先を削除し、削除直前のエンティティを返す。
// 該当行がない場合はnilを返す。
func (r *PostgresContactRepo) Delete(ctx context.Context, id, ownerID int64) (*model.Contact, error) {
	contact, err := scanContact(r.db.QueryRowContext(ctx,
		`DELETE FROM contacts
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+contactColumns,
		id, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("連絡先の削除に失敗しました: %w", err)
	}
	return contact, nil
}

// SearchByField はname・surnameの大文字小文字を無視した一致、
// またはemailの厳密一致で連絡先を検索する。
// emailだけ厳密比較となる非対称は既存システムとの互換動作として維持する。
func (r *PostgresContactRepo) SearchByField(ctx context.Context, value string, ownerID int64) ([]*model.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE owner_id = $1
		   AND (LOWER(name) = LOWER($2) OR LOWER(surname) = LOWER($2) OR email = $2)
		 ORDER BY id ASC`,
		ownerID, value,
	)
	if err != nil {
		return nil, fmt.Errorf("連絡先の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// ListBirthdayWithinWeek は誕生日の月・日が[今日, 今日+7日]に入る連絡先を返す。
// 月の範囲と日の範囲をそれぞれ独立したBETWEENとして評価する。
// このため月境界をまたぐ週では日付区間としての厳密な判定にならないが、
// 既存システムとの互換性を優先してこの挙動を維持する。
func (r *PostgresContactRepo) ListBirthdayWithinWeek(ctx context.Context, ownerID int64) ([]*model.Contact, error) {
	today := time.Now()
	nextWeek := today.AddDate(0, 0, 7)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE owner_id = $1
		   AND EXTRACT(MONTH FROM bd_date) BETWEEN $2 AND $3
		   AND EXTRACT(DAY FROM bd_date) BETWEEN $4 AND $5
		 ORDER BY id ASC`,
		ownerID,
		int(today.Month()), int(nextWeek.Month()),
		today.Day(), nextWeek.Day(),
	)
	if err != nil {
		return nil, fmt.Errorf("誕生日を迎える連絡先の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// collectContacts は複数行の連絡先を読み取る。
func collectContacts(rows *sql.Rows) ([]*model.Contact, error) {
	contacts := []*model.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("連絡先の読み取りに失敗しました: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("連絡先の走査に失敗しました: %w", err)
	}

	return contacts, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
