package database

import (
	"context"
	"fmt"
	"time"

	config "github.com/brainbarter/brain_barter/configs"
	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pendingSessionIndex backs the one-pending-proposal-per-triple rule.
const pendingSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_pending_unique
	ON sessions (learner_id, teacher_id, skill) WHERE status = 'pending'`

func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Msg("database connected")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Review{},
		&models.Session{},
		&models.MatchRequest{},
		&models.Match{},
		&models.Message{},
		&models.CalendarEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(pendingSessionIndex).Error; err != nil {
		return fmt.Errorf("create pending session index: %w", err)
	}
	log.Info().Msg("database migration successful")
	return nil
}

var demoSkillPool = []string{
	"Web Development", "Graphic Design", "Cooking", "Photography", "Guitar",
	"Public Speaking", "Machine Learning", "Data Analysis", "Yoga", "UI/UX Design",
	"Digital Marketing", "Content Writing", "Video Editing", "Python", "C++",
	"Chess", "Gardening", "Singing", "Fitness Training", "Meditation",
}

var demoNames = [][2]string{
	{"Amina", "Otieno"}, {"Brian", "Kamau"}, {"Chloe", "Martin"}, {"Diego", "Ramirez"},
	{"Esther", "Wanjiru"}, {"Farid", "Haddad"}, {"Grace", "Njeri"}, {"Hugo", "Lefebvre"},
	{"Ines", "Costa"}, {"Jonas", "Berg"}, {"Keiko", "Tanaka"}, {"Liam", "O'Brien"},
}

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "Passcode08"

// SeedDemo creates a fixed set of demo users with overlapping skills so that
// potential matches exist. It does nothing if any demo user already exists.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email LIKE ?", "%@demo.brainbarter.dev").Count(&count).Error; err != nil {
		return fmt.Errorf("check demo users: %w", err)
	}
	if count > 0 {
		log.Info().Int64("existing", count).Msg("demo users already seeded")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, name := range demoNames {
			username, err := utils.GenerateUniqueUsername(tx, name[0], name[1])
			if err != nil {
				return fmt.Errorf("generate username: %w", err)
			}
			user := models.User{
				FirstName:    name[0],
				LastName:     name[1],
				Email:        fmt.Sprintf("%s.%s@demo.brainbarter.dev", utils.UsernameBase(name[0], ""), utils.UsernameBase(name[1], "")),
				PasswordHash: string(hash),
				Username:     &username,
				Skills:       pick(demoSkillPool, i, 3),
				SkillsWanted: pick(demoSkillPool, i+7, 3),
				Credits:      models.StartingCredits,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create demo user %s: %w", user.Email, err)
			}
		}
		log.Info().Int("users", len(demoNames)).Msg("demo users seeded")
		return nil
	})
}

// pick takes n consecutive entries of pool starting at offset, wrapping.
func pick(pool []string, offset, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pool[(offset*2+i)%len(pool)])
	}
	return out
}
