// Package profile loads citizen demographic profiles for personalized ranking.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scheme-workers/internal/models"
)

var ErrProfileNotFound = errors.New("PROFILE_NOT_FOUND")

const cacheKeyPrefix = "user:profile:"

// Source is anything that can resolve a user id to a profile.
type Source interface {
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Store reads user_profiles from Postgres behind an optional Redis cache.
type Store struct {
	db    *sql.DB
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(db *sql.DB, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{db: db, redis: rdb, ttl: ttl}
}

func (s *Store) FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	cacheKey := cacheKeyPrefix + userID
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var p models.UserProfile
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, p.age, p.gender, p.occupation, p.annual_income, p.location_type,
		       p.family_size, p.landholding_hectares, p.state, u.email, u.phone
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id = $1`, userID)

	var (
		p                                   models.UserProfile
		age, familySize                     sql.NullInt64
		income, landholding                 sql.NullFloat64
		gender, occupation, location, state sql.NullString
		email, phone                        sql.NullString
	)
	err := row.Scan(&p.UserID, &age, &gender, &occupation, &income, &location,
		&familySize, &landholding, &state, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", userID, err)
	}

	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if familySize.Valid {
		v := int(familySize.Int64)
		p.FamilySize = &v
	}
	if income.Valid {
		v := income.Float64
		p.AnnualIncome = &v
	}
	if landholding.Valid {
		v := landholding.Float64
		p.Landholding = &v
	}
	p.Gender = gender.String
	p.Occupation = occupation.String
	p.LocationType = location.String
	p.State = state.String
	p.Email = email.String
	p.Phone = phone.String

	if s.redis != nil && s.ttl > 0 {
		if data, err := json.Marshal(p); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return &p, nil
}
