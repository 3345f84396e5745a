package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
)

// insertBatchSize keeps multi-row inserts under SQLite's bound-parameter limit.
const insertBatchSize = 100

// UserRepoDB implements the Repository interface on top of GORM.
// Works with both the PostgreSQL and the SQLite dialector.
type UserRepoDB struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoDB creates a new instance of UserRepoDB.
func NewUserRepoDB(db *gorm.DB, log *zap.Logger) *UserRepoDB {
	return &UserRepoDB{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// Seq is a surrogate key that fixes the list order; UserID is not unique.
type UserSchema struct {
	Seq       int64    `gorm:"primaryKey;autoIncrement"` // Position in the dataset
	UserID    int64    `gorm:"not null;index"`           // Record identifier, duplicates allowed
	FirstName string   `gorm:"not null"`
	LastName  string   `gorm:"not null"`
	Email     string   `gorm:"not null"`
	Age       int      `gorm:"not null"`
	Interests []string `gorm:"serializer:json"` // Ordered tags stored as a JSON array
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table.
func (r *UserRepoDB) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func toSchema(u user.User) UserSchema {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserSchema{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		Interests: interests,
	}
}

func toDomain(m UserSchema) user.User {
	interests := m.Interests
	if interests == nil {
		interests = []string{}
	}
	return user.User{
		ID:        m.UserID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Age:       m.Age,
		Interests: interests,
	}
}

func toSchemas(users []user.User) []UserSchema {
	models := make([]UserSchema, len(users))
	for i, u := range users {
		models[i] = toSchema(u)
	}
	return models
}

// List retrieves all users ordered by insertion sequence.
func (r *UserRepoDB) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("seq").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = toDomain(m)
	}
	return users, nil
}

// Count returns the number of rows in the users table.
func (r *UserRepoDB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Count(&n).Error; err != nil {
		r.log.Error("failed to count users in db", zap.Error(err))
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Append inserts users after the existing rows.
func (r *UserRepoDB) Append(ctx context.Context, users ...user.User) error {
	if len(users) == 0 {
		return nil
	}

	models := toSchemas(users)
	if err := r.db.WithContext(ctx).CreateInBatches(&models, insertBatchSize).Error; err != nil {
		r.log.Error("failed to insert users in db", zap.Error(err), zap.Int("count", len(users)))
		return fmt.Errorf("failed to insert users: %w", err)
	}

	r.log.Info("users inserted in db", zap.Int("count", len(users)))
	return nil
}

// ReplaceAll rewrites the table with users in one transaction.
func (r *UserRepoDB) ReplaceAll(ctx context.Context, users []user.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&UserSchema{}).Error; err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		if len(users) == 0 {
			return nil
		}
		models := toSchemas(users)
		if err := tx.CreateInBatches(&models, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("failed to replace users in db", zap.Error(err), zap.Int("count", len(users)))
		return fmt.Errorf("failed to replace users: %w", err)
	}

	r.log.Info("users replaced in db", zap.Int("count", len(users)))
	return nil
}
