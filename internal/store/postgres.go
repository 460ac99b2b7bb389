package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type guildSettingRow struct {
	GuildID       string `gorm:"primaryKey;size:32"`
	AutoTranslate bool
	OnlineOnly    bool
	FlagReactions bool
	UpdatedAt     time.Time
}

func (guildSettingRow) TableName() string { return "guild_settings" }

type userPreferenceRow struct {
	UserID    string `gorm:"primaryKey;size:32"`
	Languages string // comma-separated registry codes
	UpdatedAt time.Time
}

func (userPreferenceRow) TableName() string { return "user_preferences" }

// PostgresSnapshotter persists the settings snapshot to two Postgres tables.
type PostgresSnapshotter struct {
	gdb *gorm.DB
}

// NewPostgresSnapshotter opens the database, verifies connectivity, and
// migrates the two settings tables.
func NewPostgresSnapshotter(ctx context.Context, databaseURL string) (*PostgresSnapshotter, error) {
	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&guildSettingRow{}, &userPreferenceRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate settings tables: %w", err)
	}

	return &PostgresSnapshotter{gdb: gdb}, nil
}

func (p *PostgresSnapshotter) Load(ctx context.Context) (Snapshot, error) {
	if p == nil || p.gdb == nil {
		return Snapshot{}, fmt.Errorf("postgres snapshotter is not initialized")
	}

	var guildRows []guildSettingRow
	if err := p.gdb.WithContext(ctx).Find(&guildRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("load guild settings: %w", err)
	}
	var userRows []userPreferenceRow
	if err := p.gdb.WithContext(ctx).Find(&userRows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("load user preferences: %w", err)
	}

	snap := Snapshot{
		Guilds: make(map[string]GuildSettings, len(guildRows)),
		Users:  make(map[string][]string, len(userRows)),
	}
	for _, row := range guildRows {
		snap.Guilds[row.GuildID] = GuildSettings{
			AutoTranslate: row.AutoTranslate,
			OnlineOnly:    row.OnlineOnly,
			FlagReactions: row.FlagReactions,
		}
	}
	for _, row := range userRows {
		codes := strings.Split(row.Languages, ",")
		cleaned := make([]string, 0, len(codes))
		for _, code := range codes {
			if code = strings.TrimSpace(code); code != "" {
				cleaned = append(cleaned, code)
			}
		}
		if len(cleaned) > 0 {
			snap.Users[row.UserID] = cleaned
		}
	}
	return snap, nil
}

func (p *PostgresSnapshotter) Save(ctx context.Context, snap Snapshot) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("postgres snapshotter is not initialized")
	}

	guildRows := make([]guildSettingRow, 0, len(snap.Guilds))
	for guildID, settings := range snap.Guilds {
		guildRows = append(guildRows, guildSettingRow{
			GuildID:       guildID,
			AutoTranslate: settings.AutoTranslate,
			OnlineOnly:    settings.OnlineOnly,
			FlagReactions: settings.FlagReactions,
		})
	}
	userRows := make([]userPreferenceRow, 0, len(snap.Users))
	for userID, codes := range snap.Users {
		userRows = append(userRows, userPreferenceRow{
			UserID:    userID,
			Languages: strings.Join(codes, ","),
		})
	}

	return p.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}
		if len(guildRows) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(guildRows, 200).Error; err != nil {
				return fmt.Errorf("save guild settings: %w", err)
			}
		}
		if len(userRows) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(userRows, 200).Error; err != nil {
				return fmt.Errorf("save user preferences: %w", err)
			}
		}
		return nil
	})
}

// Ping verifies database connectivity, for the health command.
func (p *PostgresSnapshotter) Ping(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("postgres snapshotter is not initialized")
	}
	sqlDB, err := p.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (p *PostgresSnapshotter) Close() error {
	if p == nil || p.gdb == nil {
		return nil
	}
	sqlDB, err := p.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
