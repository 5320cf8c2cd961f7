package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Enum types must exist before AutoMigrate references them
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.CreditPurchase{},
		&model.CreditGrant{},
		&model.UserCredits{},
		&model.ActivityLog{},
		&model.PaymentWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	if err := createDatabaseFunctions(db); err != nil {
		logger.Error("Failed to create database functions", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

var customTypes = []struct {
	name   string
	values string
}{
	{"purchase_status", `'pending', 'confirmed', 'failed'`},
	{"payment_provider", `'stripe', 'mercado_pago'`},
	{"payment_method", `'credit_card', 'pix', 'boleto', 'debit'`},
	{"webhook_status", `'pending', 'completed', 'failed'`},
}

// createCustomTypes creates the enum types used by the models
func createCustomTypes(db *gorm.DB) error {
	for _, t := range customTypes {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, t.name).Scan(&exists).Error; err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.Exec(fmt.Sprintf(`CREATE TYPE %s AS ENUM (%s)`, t.name, t.values)).Error; err != nil {
			return fmt.Errorf("create type %s: %w", t.name, err)
		}
	}
	return nil
}

// createCustomIndexes creates indexes and checks that GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_credit_purchases_pending ON credit_purchases (created_at) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_payment_webhook_events_unprocessed ON payment_webhook_events (created_at) WHERE status IN ('pending', 'failed')`,
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_credit_purchases_economics') THEN
				ALTER TABLE credit_purchases ADD CONSTRAINT chk_credit_purchases_economics
					CHECK (base_credits > 0 AND bonus_credits >= 0 AND total_credits = base_credits + bonus_credits AND price_minor > 0);
			END IF;
		END $$`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// createDatabaseFunctions creates increment_user_credits, the only writer of user_credits.
// A single upsert adds to the stored value, so concurrent increments never lose an update.
func createDatabaseFunctions(db *gorm.DB) error {
	return db.Exec(`
CREATE OR REPLACE FUNCTION increment_user_credits(p_user_id UUID, credits_to_add BIGINT)
RETURNS BIGINT AS $$
DECLARE
    new_balance BIGINT;
BEGIN
    INSERT INTO user_credits (user_id, credits, updated_at)
    VALUES (p_user_id, credits_to_add, now())
    ON CONFLICT (user_id) DO UPDATE
        SET credits = user_credits.credits + EXCLUDED.credits,
            updated_at = now()
    RETURNING credits INTO new_balance;

    RETURN new_balance;
END;
$$ LANGUAGE plpgsql;`).Error
}
