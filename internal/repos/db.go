package repos

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"equiploan/internal/domain"
)

// OpenDB opens the store. driver is "sqlite" (default) or "pgx"; the schema and queries
// are written to run unchanged on both, with placeholders rebound per driver.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == "sqlite" {
		// One connection: in-memory databases are per-connection, and sqlite serialises
		// writers anyway.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure baseline data exists (idempotent; safe to run every start)
	if err := seedDefaultData(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func now() string { return domain.FormatTime(time.Now()) }

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('user','staff','admin')),
  user_type TEXT NOT NULL DEFAULT 'student'
);

-- Equipment
CREATE TABLE IF NOT EXISTS equipment_types(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equipment(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  inventory_number TEXT NOT NULL UNIQUE,
  images_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'ready' CHECK (status IN ('ready','borrowed','maintenance','retired')),
  equipment_type_id TEXT REFERENCES equipment_types(id)
);
CREATE INDEX IF NOT EXISTS idx_equipment_type ON equipment(equipment_type_id);

-- Loans
CREATE TABLE IF NOT EXISTS loan_requests(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  equipment_id TEXT NOT NULL REFERENCES equipment(id),
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  return_time TEXT,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected','returned')),
  rejection_reason TEXT,
  approved_by TEXT,
  approved_at TEXT,
  returned_at TEXT,
  evaluation_submitted BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_loans_equipment ON loan_requests(equipment_id, status);
CREATE INDEX IF NOT EXISTS idx_loans_user      ON loan_requests(user_id, status);

-- Reservations
CREATE TABLE IF NOT EXISTS reservations(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  equipment_id TEXT NOT NULL REFERENCES equipment(id),
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','approved','ready','completed','rejected','cancelled','expired')),
  rejection_reason TEXT,
  approved_by TEXT,
  approved_at TEXT,
  ready_at TEXT,
  ready_by TEXT,
  loan_id TEXT REFERENCES loan_requests(id),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reservations_equipment ON reservations(equipment_id, status);
CREATE INDEX IF NOT EXISTS idx_reservations_user      ON reservations(user_id, status);

-- Special loans (admin allocations outside the request flow)
CREATE TABLE IF NOT EXISTS special_loans(
  id TEXT PRIMARY KEY,
  borrower_name TEXT NOT NULL,
  equipment_ids_json TEXT NOT NULL DEFAULT '[]',
  loan_date TEXT NOT NULL,
  return_date TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active'
);

-- Audit trail
CREATE TABLE IF NOT EXISTS staff_activity_logs(
  id TEXT PRIMARY KEY,
  staff_id TEXT NOT NULL,
  staff_role TEXT NOT NULL,
  action_type TEXT NOT NULL,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  target_user_id TEXT,
  is_self_action BOOLEAN NOT NULL DEFAULT FALSE,
  details_json TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_target ON staff_activity_logs(target_type, target_id);

-- Carts
CREATE TABLE IF NOT EXISTS carts(
  user_id TEXT PRIMARY KEY,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  user_id TEXT NOT NULL REFERENCES carts(user_id) ON DELETE CASCADE,
  equipment_id TEXT NOT NULL,
  name TEXT NOT NULL,
  inventory_number TEXT NOT NULL,
  image_url TEXT,
  position INTEGER NOT NULL,
  PRIMARY KEY (user_id, equipment_id)
);

-- Settings
CREATE TABLE IF NOT EXISTS settings(
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// seedDefaultData inserts equipment types and a demo inventory if they don't already exist.
// Safe to run on every startup (idempotent).
func seedDefaultData(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	types := []domain.EquipmentType{
		{ID: "camera", Name: "กล้องถ่ายภาพ"},
		{ID: "tripod", Name: "ขาตั้งกล้อง"},
		{ID: "laptop", Name: "คอมพิวเตอร์พกพา"},
		{ID: "audio", Name: "อุปกรณ์เสียง"},
	}
	for _, t := range types {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO equipment_types(id, name) VALUES (?, ?)
			ON CONFLICT(id) DO NOTHING
		`), t.ID, t.Name); err != nil {
			return err
		}
	}

	items := []domain.Equipment{
		{ID: "eq-cam-1", Name: "Canon EOS 90D", InventoryNumber: "CAM-001", ImagesJSON: `["equipment/eq-cam-1/main.jpg"]`, Status: domain.EquipmentReady, EquipmentTypeID: "camera"},
		{ID: "eq-cam-2", Name: "Sony A7 III", InventoryNumber: "CAM-002", ImagesJSON: `[]`, Status: domain.EquipmentReady, EquipmentTypeID: "camera"},
		{ID: "eq-tripod-1", Name: "Manfrotto 190X", InventoryNumber: "TRI-001", ImagesJSON: `[]`, Status: domain.EquipmentReady, EquipmentTypeID: "tripod"},
		{ID: "eq-laptop-1", Name: "MacBook Air M2", InventoryNumber: "LAP-001", ImagesJSON: `[]`, Status: domain.EquipmentReady, EquipmentTypeID: "laptop"},
		{ID: "eq-mic-1", Name: "Rode NTG3", InventoryNumber: "AUD-001", ImagesJSON: `[]`, Status: domain.EquipmentMaintenance, EquipmentTypeID: "audio"},
	}
	for _, it := range items {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO equipment(id, name, inventory_number, images_json, status, equipment_type_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`), it.ID, it.Name, it.InventoryNumber, it.ImagesJSON, it.Status, it.EquipmentTypeID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SeedDemoUsers creates one account per role, all sharing a published password, when the
// users table is empty. Only for local and test databases.
func SeedDemoUsers(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting demo users")

	type u struct {
		ID, Email, Name, Role, Type, Hash string
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []u{
		{"u-student", "student@equiploan.test", "Somchai", "user", "student", string(hash)},
		{"u-student2", "student2@equiploan.test", "Malee", "user", "student", string(hash)},
		{"u-teacher", "teacher@equiploan.test", "Ajarn Niran", "user", "teacher", string(hash)},
		{"u-staff", "staff@equiploan.test", "Staff Ploy", "staff", "staff", string(hash)},
		{"u-admin", "admin@equiploan.test", "Admin", "admin", "staff", string(hash)},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,name,password_hash,role,user_type)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`), x.ID, x.Email, x.Name, x.Hash, x.Role, x.Type); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// inClause expands `IN (?)` arguments for the current driver.
func inClause(q sqlx.ExtContext, query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return q.Rebind(query), args, nil
}

// Ping is used by the health check.
func Ping(ctx context.Context, db *sqlx.DB) error { return db.PingContext(ctx) }
