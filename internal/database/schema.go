package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on startup.  Every statement is idempotent.
//
// reservations.active_slot is 1 for pending/confirmed rows and NULL for
// cancelled ones.  The unique key on (mesa_id, reservation_date,
// active_slot) therefore allows at most one live booking per table and
// night while letting cancelled rows pile up; a second concurrent insert
// fails with a duplicate-key error instead of double-booking.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'regular',
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS mesas (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name            VARCHAR(100) NOT NULL,
		category        ENUM('gold','silver','bronze','purple','red') NOT NULL,
		capacity        INT UNSIGNED NOT NULL,
		location        VARCHAR(100) NOT NULL DEFAULT '',
		min_spend_cents BIGINT       NOT NULL,
		available       BOOLEAN      NOT NULL DEFAULT TRUE,
		description     TEXT         NULL,
		pos_x           DOUBLE       NULL,
		pos_y           DOUBLE       NULL,
		created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_mesas_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(150) NOT NULL,
		price_cents BIGINT       NOT NULL,
		category    VARCHAR(50)  NOT NULL,
		image_url   VARCHAR(500) NULL,
		description TEXT         NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_products_category (category)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS vip_codes (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		code         VARCHAR(64)  NOT NULL,
		description  VARCHAR(255) NOT NULL DEFAULT '',
		active       BOOLEAN      NOT NULL DEFAULT TRUE,
		expires_at   DATETIME     NULL,
		max_uses     INT UNSIGNED NULL,
		uses_current INT UNSIGNED NOT NULL DEFAULT 0,
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_vip_codes_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		mesa_id            BIGINT UNSIGNED NOT NULL,
		contact_name       VARCHAR(150) NOT NULL,
		contact_phone      VARCHAR(50)  NOT NULL,
		contact_email      VARCHAR(255) NOT NULL,
		reservation_date   DATE         NOT NULL,
		time_slot          VARCHAR(5)   NOT NULL,
		party_size         INT UNSIGNED NOT NULL,
		total_cents        BIGINT       NOT NULL,
		vip_code           VARCHAR(64)  NULL,
		status             ENUM('pending','confirmed','cancelled') NOT NULL DEFAULT 'pending',
		payment_session_id VARCHAR(255) NULL,
		payment_status     ENUM('unpaid','paid','cancelled') NOT NULL DEFAULT 'unpaid',
		payer_email        VARCHAR(255) NULL,
		active_slot        TINYINT AS (IF(status <> 'cancelled', 1, NULL)) STORED,
		created_at         DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reservations_active (mesa_id, reservation_date, active_slot),
		UNIQUE KEY uq_reservations_session (payment_session_id),
		KEY idx_reservations_date (reservation_date),
		CONSTRAINT fk_reservations_mesa FOREIGN KEY (mesa_id) REFERENCES mesas(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservation_items (
		id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reservation_id   BIGINT UNSIGNED NOT NULL,
		product_id       BIGINT UNSIGNED NOT NULL,
		product_name     VARCHAR(150) NOT NULL,
		quantity         INT UNSIGNED NOT NULL,
		unit_price_cents BIGINT       NOT NULL,
		CONSTRAINT fk_items_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS guest_list_entries (
		id                BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name              VARCHAR(150) NOT NULL,
		email             VARCHAR(255) NOT NULL,
		phone             VARCHAR(50)  NOT NULL,
		entry_date        DATE         NOT NULL,
		invited_count     INT UNSIGNED NOT NULL,
		companions        JSON         NULL,
		confirmation_code VARCHAR(16)  NOT NULL,
		checked_in        BOOLEAN      NOT NULL DEFAULT FALSE,
		checked_in_at     DATETIME     NULL,
		created_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_guest_list_code (confirmation_code),
		KEY idx_guest_list_date (entry_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It stops at the first failing
// statement and reports its position.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
