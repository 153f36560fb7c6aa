// Package adapters はauthフィーチャーのリポジトリ実装と通知実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

// userGorm はUserStoreインターフェースのGORM実装です。
// PostgreSQL（本番）とSQLite（開発・テスト）の両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserStoreを実装していることをコンパイル時に検証します。
var _ usecase.UserStore = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// ReadOne はフィルタに一致するユーザーを1件取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) ReadOne(ctx context.Context, filter usecase.UserFilter) (*entity.User, error) {
	if filter.ID == "" && filter.Email == "" {
		return nil, errors.New("user filter must set id or email")
	}

	q := r.db.WithContext(ctx)
	if filter.ID != "" {
		q = q.Where("id = ?", filter.ID)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}

	var u entity.User
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateAndRefresh はユーザーをデータベースに追加し、採番済みの状態で返します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrUserAlreadyExistsを返します。
func (r *userGorm) CreateAndRefresh(ctx context.Context, user *entity.User) (*entity.User, error) {
	if user == nil {
		return nil, errors.New("user must not be nil")
	}
	created := *user
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, usecase.ErrUserAlreadyExists
		}
		return nil, err
	}
	return r.ReadOne(ctx, usecase.UserFilter{ID: created.ID})
}

// UpdateAndRefresh は指定されたフィールドだけを更新し、更新後のユーザーを再取得して返します。
// nilのフィールドは変更しません。
func (r *userGorm) UpdateAndRefresh(ctx context.Context, user *entity.User, update usecase.UserUpdate) (*entity.User, error) {
	columns := updateColumns(update)
	if len(columns) == 0 {
		return r.ReadOne(ctx, usecase.UserFilter{ID: user.ID})
	}

	res := r.db.WithContext(ctx).Model(&entity.User{ID: user.ID}).Updates(columns)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return nil, usecase.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("update user %s: %w", user.ID, err)
	}
	if res.RowsAffected == 0 {
		return nil, usecase.ErrUserNotFound
	}
	return r.ReadOne(ctx, usecase.UserFilter{ID: user.ID})
}

// Delete はユーザーを削除します。
// 対象が存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) Delete(ctx context.Context, user *entity.User) error {
	res := r.db.WithContext(ctx).Where("id = ?", user.ID).Delete(&entity.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// updateColumns はUserUpdateを列名→値のマップに変換します。
// マップで渡すことで、falseなどのゼロ値も更新対象になります。
func updateColumns(update usecase.UserUpdate) map[string]any {
	columns := make(map[string]any, 4)
	if update.Email != nil {
		columns["email"] = *update.Email
	}
	if update.HashedPassword != nil {
		columns["hashed_password"] = *update.HashedPassword
	}
	if update.ConfirmedEmail != nil {
		columns["confirmed_email"] = *update.ConfirmedEmail
	}
	if update.LastLogin != nil {
		columns["last_login"] = *update.LastLogin
	}
	return columns
}

// isUniqueViolation は一意制約違反かどうかを判定します。
// TranslateErrorが有効な接続ではgorm.ErrDuplicatedKey、無効な場合はpgconnのエラーコードで判定します。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
