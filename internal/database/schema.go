package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements for the booking core.  Statements are
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		code VARCHAR(32) NOT NULL,
		name VARCHAR(128) NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		capacity INT UNSIGNED NOT NULL DEFAULT 0,
		has_projector TINYINT(1) NOT NULL DEFAULT 0,
		has_whiteboard TINYINT(1) NOT NULL DEFAULT 0,
		has_video_conference TINYINT(1) NOT NULL DEFAULT 0,
		has_sound_system TINYINT(1) NOT NULL DEFAULT 0,
		status ENUM('available','occupied','maintenance','unavailable') NOT NULL DEFAULT 'available',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_rooms_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		room_id BIGINT UNSIGNED NOT NULL,
		requester_id BIGINT UNSIGNED NOT NULL,
		requester_name VARCHAR(128) NOT NULL DEFAULT '',
		department_id BIGINT UNSIGNED NULL,
		title VARCHAR(200) NOT NULL,
		description TEXT NULL,
		purpose ENUM('meeting','training','interview','presentation','other') NOT NULL DEFAULT 'meeting',
		start_time DATETIME(6) NOT NULL,
		end_time DATETIME(6) NOT NULL,
		expected_attendees INT UNSIGNED NOT NULL DEFAULT 1,
		status ENUM('pending','confirmed','in_progress','completed','cancelled','rejected') NOT NULL DEFAULT 'pending',
		approved_by BIGINT UNSIGNED NULL,
		approved_at DATETIME(6) NULL,
		rejection_reason VARCHAR(500) NULL,
		cancelled_by BIGINT UNSIGNED NULL,
		cancelled_at DATETIME(6) NULL,
		cancel_reason VARCHAR(500) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_bookings_room_window (room_id, status, start_time, end_time),
		KEY idx_bookings_requester (requester_id, status),
		KEY idx_bookings_start (start_time),
		CONSTRAINT fk_bookings_room FOREIGN KEY (room_id) REFERENCES rooms (id),
		CONSTRAINT chk_bookings_window CHECK (start_time < end_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		booking_id BIGINT UNSIGNED NOT NULL,
		action ENUM('created','approved','rejected','cancelled','updated') NOT NULL,
		actor_id BIGINT UNSIGNED NULL,
		details JSON NOT NULL,
		created_at DATETIME(6) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_history_booking (booking_id, created_at),
		CONSTRAINT fk_history_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables used by the booking core when they do not
// exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
